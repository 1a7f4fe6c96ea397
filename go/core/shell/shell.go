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

// Package shell runs engine admin commands through the MySQL Shell binary.
// Each call is one mysqlsh invocation executing a single python expression against
// the local server; output is whatever the expression printed.
package shell

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/util/sqlutil"
	"github.com/go-cmd/cmd"
)

// MysqlshRunner implements dtstruct.ShellRunner by shelling out to mysqlsh
type MysqlshRunner struct {
	URI     string // user@host:port the shell connects to
	Timeout time.Duration
}

// NewMysqlshRunner build a runner against the local server using configured credentials
func NewMysqlshRunner() *MysqlshRunner {
	return &MysqlshRunner{
		URI:     fmt.Sprintf("%s:%s@%s", config.Config.MySQLUser, config.Config.MySQLPassword, config.Config.UnitAddress),
		Timeout: time.Duration(config.Config.ShellTimeoutSeconds) * time.Second,
	}
}

// Run execute one python expression in mysqlsh and return collected stdout
func (r *MysqlshRunner) Run(command string) (output string, err error) {
	shellCmd := cmd.NewCmd(config.Config.MySQLShellPath, "--no-wizard", "--python", "--uri", r.URI, "-e", command)
	statusChan := shellCmd.Start()

	var status cmd.Status
	select {
	case status = <-statusChan:
	case <-time.After(r.Timeout):
		_ = shellCmd.Stop()
		return "", log.Errorf("mysqlsh timed out after %s: %s", r.Timeout, command)
	}

	output = strings.Join(status.Stdout, "\n")
	if status.Error != nil {
		return output, log.Errore(status.Error)
	}
	if status.Exit != 0 {
		return output, log.Errorf("mysqlsh exited %d: %s", status.Exit, strings.Join(status.Stderr, "\n"))
	}
	return output, nil
}

// LocalQuerier implements dtstruct.SQLQuerier against the local database server,
// for the few reads and account statements the admin API is overkill for
type LocalQuerier struct {
}

func (q *LocalQuerier) client() (*sql.DB, error) {
	uri := fmt.Sprintf("%s:%s@tcp(%s)/?timeout=10s&interpolateParams=true",
		config.Config.MySQLUser, config.Config.MySQLPassword, config.Config.UnitAddress)
	db, _, err := sqlutil.GetGenericDB(constant.BackendDBMysql, uri)
	return db, err
}

// QueryValue run a query and return the first column of the first row
func (q *LocalQuerier) QueryValue(query string, args ...interface{}) (value string, err error) {
	db, err := q.client()
	if err != nil {
		return "", log.Errore(err)
	}
	if err = db.QueryRow(query, args...).Scan(&value); err != nil && err != sql.ErrNoRows {
		return "", log.Errore(err)
	}
	return value, nil
}

// Exec run a statement, discarding results
func (q *LocalQuerier) Exec(query string, args ...interface{}) error {
	db, err := q.client()
	if err != nil {
		return log.Errore(err)
	}
	_, err = sqlutil.ExecNoPrepare(db, query, args...)
	return log.Errore(err)
}
