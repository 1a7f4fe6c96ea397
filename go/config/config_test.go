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
	"os"
	"path/filepath"
	"testing"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/util/tests"
)

func TestDefaults(t *testing.T) {
	test := tests.S(t)
	c := newConfiguration()
	test.ExpectEquals(c.BackendDB, constant.BackendDBSqlite)
	test.ExpectEquals(c.SQLite3DataFile, ":memory:")
	test.ExpectEquals(c.PlannedUnitCount, 1)
	test.ExpectEquals(c.MaxGroupSize, 9)
	test.ExpectEquals(c.MySQLUser, constant.AccountClusterAdmin)
	test.ExpectEquals(c.StatusEndpoint, constant.DefaultStatusAPIEndpoint)
	test.ExpectEquals(c.KVClusterMasterPrefix, "db/cluster-set/")
	test.ExpectTrue(c.IsSQLite())
	test.ExpectFalse(c.IsMySQL())
}

func TestPostReadAdjustments(t *testing.T) {
	test := tests.S(t)

	c := newConfiguration()
	test.ExpectNil(c.postReadAdjustments())

	c = newConfiguration()
	c.SQLite3DataFile = ""
	test.ExpectNotNil(c.postReadAdjustments())

	c = newConfiguration()
	c.BackendDB = constant.BackendDBMysql
	test.ExpectNotNil(c.postReadAdjustments())
	c.BackendDBHost = "10.89.0.2"
	test.ExpectNil(c.postReadAdjustments())

	c = newConfiguration()
	c.BackendDB = "postgres"
	test.ExpectNotNil(c.postReadAdjustments())

	c = newConfiguration()
	c.PlannedUnitCount = 0
	test.ExpectNotNil(c.postReadAdjustments())

	c = newConfiguration()
	c.MaxGroupSize = 10
	test.ExpectNotNil(c.postReadAdjustments())

	c = newConfiguration()
	c.AuthenticationMethod = "basic"
	test.ExpectNotNil(c.postReadAdjustments())
	c.HTTPAuthUser = "admin"
	c.HTTPAuthPassword = "secret"
	test.ExpectNil(c.postReadAdjustments())

	// a kv prefix read without its separator gets one appended
	c = newConfiguration()
	c.KVClusterMasterPrefix = "custom/primary"
	test.ExpectNil(c.postReadAdjustments())
	test.ExpectEquals(c.KVClusterMasterPrefix, "custom/primary/")
	test.ExpectNil(c.postReadAdjustments())
	test.ExpectEquals(c.KVClusterMasterPrefix, "custom/primary/")
}

func TestReadFromFile(t *testing.T) {
	test := tests.S(t)
	defer func() {
		Config = newConfiguration()
	}()

	fileName := filepath.Join(t.TempDir(), "clusterset4db.conf.json")
	content := `{"UnitLabel": "unit-3", "ClusterName": "cluster-x", "PlannedUnitCount": 3}`
	test.ExpectNil(os.WriteFile(fileName, []byte(content), 0644))

	Read(fileName)
	test.ExpectEquals(Config.UnitLabel, "unit-3")
	test.ExpectEquals(Config.ClusterName, "cluster-x")
	test.ExpectEquals(Config.PlannedUnitCount, 3)

	// untouched keys keep their defaults
	test.ExpectEquals(Config.MaxGroupSize, 9)
}

func TestReadSkipsMissingFiles(t *testing.T) {
	test := tests.S(t)
	defer func() {
		Config = newConfiguration()
	}()

	saved := Config.ClusterName
	Read("/no/such/clusterset4db.conf.json")
	test.ExpectEquals(Config.ClusterName, saved)
}
