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
package asyncrep

import (
	"errors"
	"fmt"
	"strings"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/core/cluster"
	"gitee.com/opengauss/clusterset4db/go/core/event"
	"gitee.com/opengauss/clusterset4db/go/core/topology"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"gitee.com/opengauss/clusterset4db/go/test"
)

func init() {
	test.DBTestInit()
}

// fakeEngine answers admin api commands through a per-test callback and
// records every command issued
type fakeEngine struct {
	commands  []string
	onCommand func(command string) (string, error)
}

func (e *fakeEngine) Run(command string) (string, error) {
	e.commands = append(e.commands, command)
	if e.onCommand == nil {
		return "", nil
	}
	return e.onCommand(command)
}

func (e *fakeEngine) issued(substr string) bool {
	for _, command := range e.commands {
		if strings.Contains(command, substr) {
			return true
		}
	}
	return false
}

type fakeQuerier struct {
	version     string
	schemaCount string
	execs       []string
}

func (q *fakeQuerier) QueryValue(query string, args ...interface{}) (string, error) {
	if strings.Contains(query, "@@version") {
		return q.version, nil
	}
	if strings.Contains(query, "schemata") {
		return q.schemaCount, nil
	}
	return "", nil
}

func (q *fakeQuerier) Exec(query string, args ...interface{}) error {
	q.execs = append(q.execs, query)
	return nil
}

func (q *fakeQuerier) executed(substr string) bool {
	for _, statement := range q.execs {
		if strings.Contains(statement, substr) {
			return true
		}
	}
	return false
}

var errEngineDown = errors.New("engine unreachable")

// statusJSON renders a cluster status document with the given role and online
// member count, labels unit-0..unit-(n-1)
func statusJSON(clusterName string, clusterRole string, onlineCount int) string {
	entries := []string{}
	for i := 0; i < onlineCount; i++ {
		role := "SECONDARY"
		mode := "R/O"
		if i == 0 {
			role = "PRIMARY"
			mode = "R/W"
		}
		entries = append(entries, fmt.Sprintf(
			`"unit-%d": {"address": "10.89.0.1%d:3306", "memberRole": "%s", "status": "ONLINE", "mode": "%s"}`, i, i, role, mode))
	}
	return fmt.Sprintf(`{
		"clusterName": "%s",
		"clusterRole": "%s",
		"defaultReplicaSet": {
			"primary": "10.89.0.10:3306",
			"status": "OK",
			"topology": {%s}
		}
	}`, clusterName, clusterRole, strings.Join(entries, ","))
}

// setStatusJSON renders a cluster set status; members maps cluster name to
// global status
func setStatusJSON(members map[string]string) string {
	entries := []string{}
	for name, globalStatus := range members {
		role := "REPLICA"
		if name == "cluster-a" {
			role = "PRIMARY"
		}
		entries = append(entries, fmt.Sprintf(
			`"%s": {"clusterRole": "%s", "globalStatus": "%s", "primary": "10.89.0.10:3306"}`, name, role, globalStatus))
	}
	return fmt.Sprintf(`{
		"domainName": "clusterset-a",
		"primaryCluster": "cluster-a",
		"globalPrimaryInstance": "10.89.0.10:3306",
		"clusters": {%s}
	}`, strings.Join(entries, ","))
}

// engineWith routes cluster status, cluster set status and everything else to
// fixed responses; empty string means the command fails
func engineWith(clusterStatus string, setStatus string) *fakeEngine {
	return &fakeEngine{onCommand: func(command string) (string, error) {
		switch {
		case strings.Contains(command, "get_cluster_set().status"):
			if setStatus == "" {
				return "", errEngineDown
			}
			return setStatus, nil
		case strings.Contains(command, "get_cluster().status"):
			if clusterStatus == "" {
				return "", errEngineDown
			}
			return clusterStatus, nil
		}
		return "ok", nil
	}}
}

type fixture struct {
	engine   *fakeEngine
	querier  *fakeQuerier
	operator *cluster.Operator
	queue    *event.Queue
	offer    *Offer
	consumer *Consumer
	broken   *BrokenHandler
}

func newFixture(queueName string, engine *fakeEngine, leader bool) *fixture {
	cluster.FlushStatusCache()
	querier := &fakeQuerier{version: "8.0.34", schemaCount: "0"}
	operator := &cluster.Operator{Runner: engine, Querier: querier}
	reconciler := topology.NewReconciler(operator, func() bool { return leader })
	queue := event.CreateOrReturnQueue(queueName)
	isLeader := func() bool { return leader }
	f := &fixture{
		engine:   engine,
		querier:  querier,
		operator: operator,
		queue:    queue,
		offer:    NewOffer(operator, reconciler, queue, isLeader),
		consumer: NewConsumer(operator, reconciler, queue, isLeader),
	}
	f.broken = NewBrokenHandler(operator, reconciler, isLeader, func() bool { return false })
	f.broken.PollInterval = 0
	f.broken.PollAttempt = 2
	f.broken.settleDelay = 0
	return f
}

func offerTrigger(kind string, id int64) dtstruct.Trigger {
	return dtstruct.Trigger{Kind: kind, Relation: dtstruct.Relation{ID: id, Kind: constant.RelationOffer}}
}

func consumerTrigger(kind string, id int64) dtstruct.Trigger {
	return dtstruct.Trigger{Kind: kind, Relation: dtstruct.Relation{ID: id, Kind: constant.RelationConsumer}}
}
