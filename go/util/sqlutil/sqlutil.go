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
package sqlutil

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// CellData is the result of a single (nullable) cell in a single row
type CellData sql.NullString

// RowMap maps a single row's column values by column name
type RowMap map[string]CellData

func (rm RowMap) GetString(key string) string {
	return rm[key].String
}

func (rm RowMap) GetInt(key string) int {
	res, _ := strconv.Atoi(rm.GetString(key))
	return res
}

func (rm RowMap) GetInt64(key string) int64 {
	res, _ := strconv.ParseInt(rm.GetString(key), 10, 64)
	return res
}

func (rm RowMap) GetUint(key string) uint {
	res, _ := strconv.ParseUint(rm.GetString(key), 10, 0)
	return uint(res)
}

func (rm RowMap) GetBool(key string) bool {
	return rm.GetInt(key) != 0
}

var knownDBs = make(map[string]*sql.DB)
var knownDBsMutex sync.Mutex

// GetGenericDB returns a DB instance based on uri. Instances are pooled per uri so that
// repeated calls share a client.
func GetGenericDB(driverName, dataSourceName string) (db *sql.DB, exists bool, err error) {
	knownDBsMutex.Lock()
	defer knownDBsMutex.Unlock()

	uri := driverName + ":" + dataSourceName
	if db, exists = knownDBs[uri]; !exists {
		if db, err = sql.Open(driverName, dataSourceName); err != nil {
			return nil, false, err
		}
		knownDBs[uri] = db
	}
	return db, exists, nil
}

// rowToMap reads a single row into a RowMap
func rowToMap(rows *sql.Rows, columns []string) (RowMap, error) {
	buff := make([]interface{}, len(columns))
	data := make([]sql.NullString, len(columns))
	for i := range buff {
		buff[i] = &data[i]
	}
	if err := rows.Scan(buff...); err != nil {
		return nil, err
	}
	rowMap := make(RowMap)
	for i, column := range columns {
		rowMap[column] = CellData(data[i])
	}
	return rowMap, nil
}

// QueryRowsMap runs a query and calls onRow for each resulting row, presented as a RowMap
func QueryRowsMap(db *sql.DB, query string, onRow func(RowMap) error, args ...interface{}) (err error) {
	rows, err := db.Query(query, args...)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	for rows.Next() {
		rowMap, err := rowToMap(rows, columns)
		if err != nil {
			return err
		}
		if err = onRow(rowMap); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ExecNoPrepare executes given query using given args on given DB, without first preparing a statement
func ExecNoPrepare(db *sql.DB, query string, args ...interface{}) (sql.Result, error) {
	return db.Exec(query, args...)
}

var sqlite3CreateTableRegexp = regexp.MustCompile(`(?i)create table`)
var sqlite3AutoIncrementRegexp = regexp.MustCompile(`(?i)auto_increment`)
var sqlite3NowRegexp = regexp.MustCompile(`(?i)now\(\)`)
var sqlite3IntervalRegexp = regexp.MustCompile(`(?i)now\(\)\s*-\s*interval \? second`)
var sqlite3InsertIgnoreRegexp = regexp.MustCompile(`(?i)insert ignore`)
var sqlite3ReplaceIntoRegexp = regexp.MustCompile(`(?i)replace into`)

// ToSqlite3Dialect rewrites a mysql-flavored statement into sqlite3 flavor.
// Covers only the constructs this app actually issues.
func ToSqlite3Dialect(statement string) string {
	statement = sqlite3CreateTableRegexp.ReplaceAllString(statement, "create table if not exists")
	statement = sqlite3AutoIncrementRegexp.ReplaceAllString(statement, "autoincrement")
	statement = sqlite3IntervalRegexp.ReplaceAllString(statement, "datetime('now', '-' || ? || ' seconds')")
	statement = sqlite3NowRegexp.ReplaceAllString(statement, "datetime('now')")
	statement = sqlite3InsertIgnoreRegexp.ReplaceAllString(statement, "insert or ignore")
	statement = sqlite3ReplaceIntoRegexp.ReplaceAllString(statement, "replace into")
	return strings.TrimSpace(statement)
}
