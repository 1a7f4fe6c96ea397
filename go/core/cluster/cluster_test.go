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
package cluster

import (
	"errors"
	"strings"
	"testing"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"gitee.com/opengauss/clusterset4db/go/test"
	"gitee.com/opengauss/clusterset4db/go/util/tests"
)

func init() {
	test.DBTestInit()
}

type scripted struct {
	output string
	err    error
}

// fakeRunner replays a fixed script of engine responses, recording every command
type fakeRunner struct {
	commands []string
	script   []scripted
}

func (r *fakeRunner) Run(command string) (string, error) {
	r.commands = append(r.commands, command)
	if len(r.script) == 0 {
		return "", nil
	}
	next := r.script[0]
	r.script = r.script[1:]
	return next.output, next.err
}

type fakeQuerier struct {
	value string
	err   error
}

func (q *fakeQuerier) QueryValue(query string, args ...interface{}) (string, error) {
	return q.value, q.err
}

func (q *fakeQuerier) Exec(query string, args ...interface{}) error {
	return q.err
}

const clusterStatusJSON = `{
	"clusterName": "cluster-a",
	"clusterRole": "PRIMARY",
	"defaultReplicaSet": {
		"primary": "10.89.0.10:3306",
		"status": "OK",
		"topology": {
			"unit-0": {"address": "10.89.0.10:3306", "memberRole": "PRIMARY", "status": "ONLINE", "mode": "R/W"},
			"unit-1": {"address": "10.89.0.11:3306", "memberRole": "SECONDARY", "status": "ONLINE", "mode": "R/O"}
		}
	}
}`

const replicaStatusJSON = `{
	"clusterName": "cluster-b",
	"clusterRole": "REPLICA",
	"defaultReplicaSet": {
		"primary": "10.89.0.20:3306",
		"status": "OK",
		"topology": {
			"unit-0": {"address": "10.89.0.20:3306", "memberRole": "PRIMARY", "status": "ONLINE", "mode": "R/O"}
		}
	}
}`

const clusterSetStatusJSON = `{
	"domainName": "clusterset-a",
	"primaryCluster": "cluster-a",
	"globalPrimaryInstance": "10.89.0.10:3306",
	"clusters": {
		"cluster-a": {"clusterRole": "PRIMARY", "globalStatus": "OK", "primary": "10.89.0.10:3306"},
		"cluster-b": {"clusterRole": "REPLICA", "globalStatus": "OK", "primary": "10.89.0.20:3306"}
	}
}`

func TestAddInstanceCloneFallback(t *testing.T) {
	runner := &fakeRunner{script: []scripted{
		{err: errors.New("GR recovery is not possible")},
		{output: "instance added"},
	}}
	operator := &Operator{Runner: runner, Querier: &fakeQuerier{}}

	err := operator.AddInstanceToCluster("10.89.0.11:3306", "unit-1", "10.89.0.12:3306")
	test := tests.S(t)
	test.ExpectNil(err)
	test.ExpectEquals(len(runner.commands), 2)
	test.ExpectTrue(strings.Contains(runner.commands[0], "'recoveryMethod': 'incremental'"))
	test.ExpectTrue(strings.Contains(runner.commands[1], "'recoveryMethod': 'clone'"))
	test.ExpectTrue(strings.Contains(runner.commands[1], "'cloneDonor': '10.89.0.12:3306'"))
}

func TestAddInstanceFallbackExhausted(t *testing.T) {
	runner := &fakeRunner{script: []scripted{
		{err: errors.New("incremental failed")},
		{err: errors.New("clone failed")},
	}}
	operator := &Operator{Runner: runner, Querier: &fakeQuerier{}}

	err := operator.AddInstanceToCluster("10.89.0.11:3306", "unit-1", "")
	test := tests.S(t)
	test.ExpectTrue(errors.Is(err, dtstruct.ErrAddInstanceToCluster))
	test.ExpectEquals(len(runner.commands), 2)
}

func TestGetClusterStatusParsing(t *testing.T) {
	runner := &fakeRunner{script: []scripted{{output: clusterStatusJSON}}}
	operator := &Operator{Runner: runner, Querier: &fakeQuerier{}}

	status := operator.GetClusterStatus()
	test := tests.S(t)
	test.ExpectNotNil(status)
	test.ExpectEquals(status.ClusterName, "cluster-a")
	test.ExpectFalse(status.IsReplica())
	test.ExpectEquals(status.Primary, "10.89.0.10:3306")
	test.ExpectEquals(status.OnlineCount(), 2)
	test.ExpectEquals(status.MemberRoleOf("unit-1"), constant.MemberRoleSecondary)
	test.ExpectEquals(status.MemberRoleOf("unit-9"), constant.MemberRoleUnknown)
	test.ExpectTrue(status.Topology["unit-1"].IsReadOnlySecondary())
}

func TestGetClusterStatusGarbledThenClean(t *testing.T) {
	runner := &fakeRunner{script: []scripted{
		{output: "WARNING: not valid json"},
		{output: clusterStatusJSON},
	}}
	operator := &Operator{Runner: runner, Querier: &fakeQuerier{}}

	status := operator.GetClusterStatus()
	test := tests.S(t)
	test.ExpectNotNil(status)
	test.ExpectEquals(len(runner.commands), 2)
}

func TestGetClusterSetStatusParsing(t *testing.T) {
	runner := &fakeRunner{script: []scripted{{output: clusterSetStatusJSON}}}
	operator := &Operator{Runner: runner, Querier: &fakeQuerier{}}

	status := operator.GetClusterSetStatus()
	test := tests.S(t)
	test.ExpectNotNil(status)
	test.ExpectEquals(status.PrimaryCluster, "cluster-a")
	test.ExpectEquals(status.GlobalStatusOf("cluster-b"), constant.GlobalStatusOK)
	test.ExpectEquals(status.GlobalStatusOf("cluster-x"), constant.GlobalStatusUnknown)
}

func TestRejoinClusterRequiresInvalidated(t *testing.T) {
	runner := &fakeRunner{script: []scripted{{output: clusterSetStatusJSON}}}
	operator := &Operator{Runner: runner, Querier: &fakeQuerier{}}

	err := operator.RejoinCluster("cluster-b")
	test := tests.S(t)
	test.ExpectTrue(errors.Is(err, dtstruct.ErrRejoinCluster))
	// status read only, the rejoin command must not have been issued
	test.ExpectEquals(len(runner.commands), 1)
}

func TestDissolvePromotesSiblingFirst(t *testing.T) {
	runner := &fakeRunner{script: []scripted{
		{output: clusterStatusJSON},    // local status: primary of the set
		{output: clusterSetStatusJSON}, // two clusters in the set
		{output: "ok"},                 // set_primary_cluster
		{output: "ok"},                 // remove_cluster
		{output: "ok"},                 // dissolve
	}}
	operator := &Operator{Runner: runner, Querier: &fakeQuerier{}}

	err := operator.DissolveCluster(true)
	test := tests.S(t)
	test.ExpectNil(err)
	test.ExpectEquals(len(runner.commands), 5)
	test.ExpectTrue(strings.Contains(runner.commands[2], "set_primary_cluster('cluster-b')"))
	test.ExpectTrue(strings.Contains(runner.commands[3], "remove_cluster('cluster-a'"))
	test.ExpectTrue(strings.Contains(runner.commands[4], "dissolve"))
}

func TestDissolveReplicaSkipsPromotion(t *testing.T) {
	runner := &fakeRunner{script: []scripted{
		{output: replicaStatusJSON},
		{output: "ok"}, // dissolve directly
	}}
	operator := &Operator{Runner: runner, Querier: &fakeQuerier{}}

	err := operator.DissolveCluster(false)
	test := tests.S(t)
	test.ExpectNil(err)
	test.ExpectEquals(len(runner.commands), 2)
	test.ExpectTrue(strings.Contains(runner.commands[1], "dissolve"))
}

func TestRemoveInstanceLastOnlineDissolves(t *testing.T) {
	runner := &fakeRunner{script: []scripted{
		{output: replicaStatusJSON}, // remove: one online member left
		{output: replicaStatusJSON}, // dissolve re-reads status
		{output: "ok"},              // dissolve
	}}
	operator := &Operator{Runner: runner, Querier: &fakeQuerier{}}

	err := operator.RemoveInstance("unit-0", true)
	test := tests.S(t)
	test.ExpectNil(err)
	test.ExpectTrue(strings.Contains(runner.commands[len(runner.commands)-1], "dissolve"))
}

func TestRemoveInstanceUnknownLabelIsNoop(t *testing.T) {
	runner := &fakeRunner{script: []scripted{
		{output: clusterStatusJSON},
	}}
	operator := &Operator{Runner: runner, Querier: &fakeQuerier{}}

	err := operator.RemoveInstance("unit-9", true)
	test := tests.S(t)
	test.ExpectNil(err)
	test.ExpectEquals(len(runner.commands), 1)
}

func TestHasUserData(t *testing.T) {
	operator := &Operator{Runner: &fakeRunner{}, Querier: &fakeQuerier{value: "0"}}
	found, err := operator.HasUserData()
	test := tests.S(t)
	test.ExpectNil(err)
	test.ExpectFalse(found)

	operator.Querier = &fakeQuerier{value: "2"}
	found, err = operator.HasUserData()
	test.ExpectNil(err)
	test.ExpectTrue(found)
}
