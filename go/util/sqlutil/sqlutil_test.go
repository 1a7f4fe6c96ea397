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
	"strings"
	"testing"

	"gitee.com/opengauss/clusterset4db/go/util/tests"
)

func TestToSqlite3DialectCreateTable(t *testing.T) {
	test := tests.S(t)
	rewritten := ToSqlite3Dialect(`create table csd_audit (audit_id bigint auto_increment primary key)`)
	test.ExpectTrue(strings.HasPrefix(rewritten, "create table if not exists"))
	test.ExpectTrue(strings.Contains(rewritten, "autoincrement"))
	test.ExpectFalse(strings.Contains(rewritten, "auto_increment"))
}

func TestToSqlite3DialectNow(t *testing.T) {
	test := tests.S(t)
	rewritten := ToSqlite3Dialect(`insert into t (ts) values (now())`)
	test.ExpectTrue(strings.Contains(rewritten, "datetime('now')"))
}

func TestToSqlite3DialectInterval(t *testing.T) {
	test := tests.S(t)

	// the interval form must be rewritten before the bare now() form eats it
	rewritten := ToSqlite3Dialect(`update t set x = 1 where ts < (now() - interval ? second)`)
	test.ExpectTrue(strings.Contains(rewritten, "datetime('now', '-' || ? || ' seconds')"))
	test.ExpectFalse(strings.Contains(rewritten, "interval"))
}

func TestToSqlite3DialectInsertIgnore(t *testing.T) {
	test := tests.S(t)
	rewritten := ToSqlite3Dialect(`insert ignore into t (a) values (?)`)
	test.ExpectTrue(strings.HasPrefix(rewritten, "insert or ignore"))
}

func TestRowMapGetters(t *testing.T) {
	test := tests.S(t)
	m := RowMap{
		"name":    CellData(sql.NullString{String: "cluster-a", Valid: true}),
		"count":   CellData(sql.NullString{String: "42", Valid: true}),
		"big":     CellData(sql.NullString{String: "9000000000", Valid: true}),
		"flag":    CellData(sql.NullString{String: "1", Valid: true}),
		"absent":  CellData(sql.NullString{}),
		"garbage": CellData(sql.NullString{String: "x", Valid: true}),
	}
	test.ExpectEquals(m.GetString("name"), "cluster-a")
	test.ExpectEquals(m.GetInt("count"), 42)
	test.ExpectEquals(m.GetInt64("big"), int64(9000000000))
	test.ExpectTrue(m.GetBool("flag"))
	test.ExpectEquals(m.GetString("absent"), "")
	test.ExpectEquals(m.GetInt("garbage"), 0)
	test.ExpectFalse(m.GetBool("garbage"))
}
