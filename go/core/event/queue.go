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

// Package event manages the queue of relation triggers awaiting evaluation: an
// ordered queue with no duplicates. Deferral re-enqueues the same trigger with
// a bumped attempt count; this is the cooperative retry idiom the state machine
// uses instead of blocking waits. The queue is mirrored to the backend database
// so queued triggers survive a process restart.
package event

import (
	"sync"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/db"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"gitee.com/opengauss/clusterset4db/go/util/sqlutil"
	"github.com/rcrowley/go-metrics"
)

var deferredCounter = metrics.NewCounter()

func init() {
	metrics.Register(constant.MetricEventDeferred, deferredCounter)
}

type triggerKey struct {
	relationKind string
	relationID   int64
	triggerKind  string
}

func keyOf(t dtstruct.Trigger) triggerKey {
	return triggerKey{relationKind: t.Relation.Kind, relationID: t.Relation.ID, triggerKind: t.Kind}
}

// Queue is an ordered trigger queue with no duplicates. Attempt count is not
// part of a trigger's identity: deferring a queued trigger does not duplicate it.
type Queue struct {
	sync.Mutex

	name     string
	triggers []dtstruct.Trigger
	queued   map[triggerKey]bool
}

var queueMap = make(map[string]*Queue)
var queueLock sync.Mutex

// CreateOrReturnQueue returns the named queue, creating it on first use
func CreateOrReturnQueue(name string) *Queue {
	queueLock.Lock()
	defer queueLock.Unlock()

	if q, found := queueMap[name]; found {
		return q
	}
	q := &Queue{name: name, queued: make(map[triggerKey]bool)}
	queueMap[name] = q
	return q
}

// QueueLen returns the number of queued triggers
func (q *Queue) QueueLen() int {
	q.Lock()
	defer q.Unlock()
	return len(q.triggers)
}

// Push enqueues a trigger unless an identical one is already queued
func (q *Queue) Push(t dtstruct.Trigger) {
	q.Lock()
	defer q.Unlock()

	if q.queued[keyOf(t)] {
		return
	}
	q.queued[keyOf(t)] = true
	q.triggers = append(q.triggers, t)
	q.persist(t)
}

// Pop removes and returns the oldest queued trigger; ok is false on an empty
// queue. Pop never blocks: the reconcile loop polls.
func (q *Queue) Pop() (t dtstruct.Trigger, ok bool) {
	q.Lock()
	defer q.Unlock()

	if len(q.triggers) == 0 {
		return t, false
	}
	t = q.triggers[0]
	q.triggers = q.triggers[1:]
	delete(q.queued, keyOf(t))
	q.unpersist(t)
	return t, true
}

// Defer re-enqueues a consumed trigger with a bumped attempt count, giving up
// once the attempt budget is spent. Returns false when the trigger was dropped.
func (q *Queue) Defer(t dtstruct.Trigger) bool {
	deferredCounter.Inc(1)
	t.Attempt++
	if t.Attempt > config.Config.DeferredEventMaxAttempt {
		log.Warningf("dropping %s trigger for relation %s:%d after %d attempts", t.Kind, t.Relation.Kind, t.Relation.ID, t.Attempt-1)
		return false
	}
	q.Push(t)
	return true
}

// Reload re-enqueues the triggers that were queued when the process last exited
func (q *Queue) Reload() error {
	var reloaded []dtstruct.Trigger
	err := db.Query(`
			select
				relation_kind, relation_id, trigger_kind, attempt
			from
				csd_event_queue
			where
				in_queue = 1
			order by
				event_id asc
		`, nil, func(m sqlutil.RowMap) error {
		reloaded = append(reloaded, dtstruct.Trigger{
			Kind:     m.GetString("trigger_kind"),
			Relation: dtstruct.Relation{ID: m.GetInt64("relation_id"), Kind: m.GetString("relation_kind")},
			Attempt:  m.GetInt("attempt"),
		})
		return nil
	})
	if err != nil {
		return log.Errore(err)
	}

	q.Lock()
	defer q.Unlock()
	for _, t := range reloaded {
		if q.queued[keyOf(t)] {
			continue
		}
		q.queued[keyOf(t)] = true
		q.triggers = append(q.triggers, t)
	}
	return nil
}

// persist mirrors a queued trigger to the backend. Caller holds the lock.
func (q *Queue) persist(t dtstruct.Trigger) {
	if _, err := db.ExecSQL(`
			insert into csd_event_queue (
				relation_kind, relation_id, trigger_kind, attempt, in_queue
			) values (
				?, ?, ?, ?, 1
			)
		`, t.Relation.Kind, t.Relation.ID, t.Kind, t.Attempt,
	); err != nil {
		log.Erroref(err)
	}
}

// unpersist drops a trigger's backing rows. Caller holds the lock.
func (q *Queue) unpersist(t dtstruct.Trigger) {
	if _, err := db.ExecSQL(`
			delete from csd_event_queue
			where
				relation_kind = ? and relation_id = ? and trigger_kind = ?
		`, t.Relation.Kind, t.Relation.ID, t.Kind,
	); err != nil {
		log.Erroref(err)
	}
}
