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
package mysql

import (
	"database/sql"
	"fmt"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/util/sqlutil"
	"github.com/go-sql-driver/mysql"
)

type MysqlBackend struct {
}

// errorMap key is mysql error code, if error is tolerable, value is true, otherwise is false
var errorMap map[uint16]bool

func init() {
	errorMap = make(map[uint16]bool)
	errorMap[1050] = true  // table already exists
	errorMap[1061] = true  // duplicate key name
	errorMap[1064] = false // you have an error in your sql syntax
	errorMap[1146] = false // table doesn't exist
}

// DBHandler get client for mysql.
func (m *MysqlBackend) DBHandler() (db *sql.DB, err error) {
	return clientForMysql()
}

// SchemaInit will issue given ddl queries, tolerating already-deployed objects
func (m *MysqlBackend) SchemaInit(schema []string) {
	var db *sql.DB
	var err error
	if db, err = clientForMysql(); db != nil && err == nil {
		for _, ddl := range schema {
			if _, err = db.Exec(ddl); err != nil {
				// use white list to avoid unknown error
				if val, ok := errorMap[err.(*mysql.MySQLError).Number]; !ok || !val {
					log.Errorf("%+v; query=%+v", err, ddl)
					return
				}
			}
		}
		return
	}
	log.Fatale(err)
}

// StatementDialect statements are written in mysql flavor already
func (m *MysqlBackend) StatementDialect(statement string) (string, error) {
	return statement, nil
}

// clientForMysql return db client for mysql backend db
func clientForMysql() (db *sql.DB, err error) {
	uri := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?timeout=10s&interpolateParams=true",
		config.Config.BackendDBUser,
		config.Config.BackendDBPassword,
		config.Config.BackendDBHost,
		config.Config.BackendDBPort,
		config.Config.BackendDBName,
	)
	if db, _, err = sqlutil.GetGenericDB(constant.BackendDBMysql, uri); err != nil {
		return nil, log.Errore(err)
	}
	db.SetMaxOpenConns(constant.ConcurrencyBackendDBWrite)
	return db, nil
}
