/*
	Copyright 2021 SANGFOR TECHNOLOGIES

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

		http://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/
package config

import (
	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/log"
)

// TestConfigLog config log
func TestConfigLog() {

	// disable output log
	log.DisableOutput(true)

	// set fatal function, do nothing in it
	log.SetFatalFunc(func() {
		// nothing to do here
	})
}

// TestConfigDB config an in-memory sqlite backend and a minimal unit identity
func TestConfigDB() {

	// set log
	TestConfigLog()

	config.Config.BackendDB = constant.BackendDBSqlite
	config.Config.SQLite3DataFile = ":memory:"
	config.Config.UnitLabel = "unit-0"
	config.Config.UnitAddress = "10.89.0.10:3306"
	config.Config.ClusterName = "cluster-a"
	config.Config.ClusterSetDomainName = "clusterset-a"
	config.Config.PlannedUnitCount = 3
	config.Config.MaxGroupSize = 9
	config.MarkConfigurationLoaded()
}
