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
package db

import (
	"database/sql"

	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/util/sqlutil"
)

// GetDBClient get backend db client from cache or create it if not exist in cache.
func GetDBClient() (db *sql.DB, err error) {
	return GetBackendDBHandler(config.Config.BackendDB).DBHandler()
}

// ExecSQL will execute given sql on the backend database.
func ExecSQL(query string, args ...interface{}) (result sql.Result, err error) {

	// dialect statement
	if query, err = GetBackendDBHandler(config.Config.BackendDB).StatementDialect(query); err != nil {
		return nil, err
	}

	// get client db and exec statement
	var db *sql.DB
	if db, err = GetDBClient(); db != nil && err == nil {
		return sqlutil.ExecNoPrepare(db, query, args...)
	}
	return nil, err
}

// Query exec query and process result using function `funcOnRow`.
func Query(query string, argsArray []interface{}, funcOnRow func(sqlutil.RowMap) error) (err error) {

	// dialect statement
	if query, err = GetBackendDBHandler(config.Config.BackendDB).StatementDialect(query); err != nil {
		return err
	}

	// get sql client
	var db *sql.DB
	if db, err = GetDBClient(); err != nil {
		return err
	}

	return sqlutil.QueryRowsMap(db, query, funcOnRow, argsArray...)
}
