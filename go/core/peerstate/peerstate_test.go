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
package peerstate

import (
	"testing"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/test"
	"gitee.com/opengauss/clusterset4db/go/util/tests"
)

func init() {
	test.DBTestInit()
}

func TestGroupValueLifecycle(t *testing.T) {
	test := tests.S(t)

	_, found, err := GetGroupValue("lifecycle-key")
	test.ExpectNil(err)
	test.ExpectFalse(found)

	test.ExpectNil(SetGroupValue("lifecycle-key", "first"))
	value, found, err := GetGroupValue("lifecycle-key")
	test.ExpectNil(err)
	test.ExpectTrue(found)
	test.ExpectEquals(value, "first")

	// last write wins
	test.ExpectNil(SetGroupValue("lifecycle-key", "second"))
	value, _, err = GetGroupValue("lifecycle-key")
	test.ExpectNil(err)
	test.ExpectEquals(value, "second")

	test.ExpectNil(ClearGroupValue("lifecycle-key"))
	_, found, err = GetGroupValue("lifecycle-key")
	test.ExpectNil(err)
	test.ExpectFalse(found)
}

func TestGroupFlag(t *testing.T) {
	test := tests.S(t)

	test.ExpectFalse(GroupFlagSet("flag-key"))
	test.ExpectNil(RaiseGroupFlag("flag-key"))
	test.ExpectTrue(GroupFlagSet("flag-key"))

	// an arbitrary value is not a raised flag
	test.ExpectNil(SetGroupValue("flag-key", "yes"))
	test.ExpectFalse(GroupFlagSet("flag-key"))

	test.ExpectNil(ClearGroupValue("flag-key"))
}

func TestGroupCounterNeverLowers(t *testing.T) {
	test := tests.S(t)

	count, err := GetGroupCounter("counter-key")
	test.ExpectNil(err)
	test.ExpectEquals(count, 0)

	test.ExpectNil(RaiseGroupCounter("counter-key", 3))
	count, err = GetGroupCounter("counter-key")
	test.ExpectNil(err)
	test.ExpectEquals(count, 3)

	// raising to a lower value is a no-op
	test.ExpectNil(RaiseGroupCounter("counter-key", 1))
	count, err = GetGroupCounter("counter-key")
	test.ExpectNil(err)
	test.ExpectEquals(count, 3)

	// clearing is the only way down
	test.ExpectNil(ClearGroupValue("counter-key"))
	count, err = GetGroupCounter("counter-key")
	test.ExpectNil(err)
	test.ExpectEquals(count, 0)
}

func TestMemberValueIsScopedByLabel(t *testing.T) {
	test := tests.S(t)

	test.ExpectNil(SetMemberValue("unit-0", constant.MemberKeyState, constant.MemberStateOnline))
	test.ExpectNil(SetMemberValue("unit-1", constant.MemberKeyState, constant.MemberStateWaiting))

	value, found, err := GetMemberValue("unit-0", constant.MemberKeyState)
	test.ExpectNil(err)
	test.ExpectTrue(found)
	test.ExpectEquals(value, constant.MemberStateOnline)

	value, _, err = GetMemberValue("unit-1", constant.MemberKeyState)
	test.ExpectNil(err)
	test.ExpectEquals(value, constant.MemberStateWaiting)

	test.ExpectNil(ClearMemberValue("unit-0", constant.MemberKeyState))
	_, found, err = GetMemberValue("unit-0", constant.MemberKeyState)
	test.ExpectNil(err)
	test.ExpectFalse(found)

	// the other member's key is untouched
	_, found, err = GetMemberValue("unit-1", constant.MemberKeyState)
	test.ExpectNil(err)
	test.ExpectTrue(found)
	test.ExpectNil(ClearMemberValue("unit-1", constant.MemberKeyState))
}

func TestRelationDataIsScopedBySide(t *testing.T) {
	const relationID = 42
	test := tests.S(t)

	test.ExpectNil(SetRelationValue(relationID, constant.RelationOffer, constant.RelationKeyClusterName, "cluster-a"))
	test.ExpectNil(SetRelationValue(relationID, constant.RelationOffer, constant.RelationKeyMySQLVersion, "8.0.34"))
	test.ExpectNil(SetRelationValue(relationID, constant.RelationConsumer, constant.RelationKeyClusterName, "cluster-b"))

	value, found, err := GetRelationValue(relationID, constant.RelationOffer, constant.RelationKeyClusterName)
	test.ExpectNil(err)
	test.ExpectTrue(found)
	test.ExpectEquals(value, "cluster-a")

	value, _, err = GetRelationValue(relationID, constant.RelationConsumer, constant.RelationKeyClusterName)
	test.ExpectNil(err)
	test.ExpectEquals(value, "cluster-b")

	data, err := GetRelationData(relationID, constant.RelationOffer)
	test.ExpectNil(err)
	test.ExpectEquals(len(data), 2)
	test.ExpectEquals(data[constant.RelationKeyMySQLVersion], "8.0.34")

	// teardown drops both sides
	test.ExpectNil(ClearRelation(relationID))
	data, err = GetRelationData(relationID, constant.RelationOffer)
	test.ExpectNil(err)
	test.ExpectEquals(len(data), 0)
	_, found, err = GetRelationValue(relationID, constant.RelationConsumer, constant.RelationKeyClusterName)
	test.ExpectNil(err)
	test.ExpectFalse(found)
}
