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
package base

import (
	"strings"
	"testing"

	"gitee.com/opengauss/clusterset4db/go/test"
	"gitee.com/opengauss/clusterset4db/go/util/tests"
)

func init() {
	test.DBTestInit()
}

func TestAuditOperationToBackendDB(t *testing.T) {
	test := tests.S(t)

	AuditOperation("create-cluster", "unit-0", "cluster-a", "cluster created")
	AuditOperation("join-instance", "unit-1", "cluster-a", "instance joined")

	audits, err := ReadRecentAudit(0, 10)
	test.ExpectNil(err)
	test.ExpectTrue(len(audits) >= 2)

	// newest first
	test.ExpectTrue(strings.Contains(audits[0], "join-instance"))
	test.ExpectTrue(strings.Contains(audits[0], "unit-1"))
	test.ExpectTrue(strings.Contains(audits[1], "create-cluster"))
	test.ExpectTrue(strings.Contains(audits[1], "[cluster-a]"))
}

func TestReadRecentAuditPagination(t *testing.T) {
	test := tests.S(t)

	for i := 0; i < 5; i++ {
		AuditOperation("page-audit", "unit-0", "cluster-a", "entry")
	}

	firstPage, err := ReadRecentAudit(0, 2)
	test.ExpectNil(err)
	test.ExpectEquals(len(firstPage), 2)

	secondPage, err := ReadRecentAudit(1, 2)
	test.ExpectNil(err)
	test.ExpectEquals(len(secondPage), 2)
}
