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

// Package lock is the shared-table mutual exclusion primitive guarding topology
// changes. A member acquires by inserting a row for the task and re-reading to see
// whether it won; the winner is the row with the smallest lock id. There is no lease,
// no TTL and no fencing token: a false return only means "could not acquire now", and
// callers must either retry with backoff or abort. Guarded operations must re-resolve
// the current primary afterwards, since nothing prevents it changing concurrently.
package lock

import (
	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/core/db"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/util/sqlutil"
	"github.com/rcrowley/go-metrics"
)

var acquireCounter = metrics.NewCounter()
var contendedCounter = metrics.NewCounter()

func init() {
	metrics.Register(constant.MetricLockAcquire, acquireCounter)
	metrics.Register(constant.MetricLockContended, contendedCounter)
}

// Acquire insert a lock row for given task and check whether this holder won.
// Returns false both on contention and on any execution error; it never raises.
func Acquire(task string, holder string) bool {
	acquireCounter.Inc(1)

	if _, err := db.ExecSQL(`
			insert into csd_task_lock (
				task, holder, begin_timestamp
			) values (
				?, ?, now()
			)
		`, task, holder,
	); err != nil {
		log.Errore(err)
		return false
	}

	// re-read and check we won: the winning row is the first inserted for the task
	winner, err := taskWinner(task)
	if err != nil {
		log.Errore(err)
		return false
	}
	if winner != holder {
		contendedCounter.Inc(1)
		log.Debugf("lock on task %s contended: winner is %s, not %s", task, winner, holder)
		// withdraw our losing row so the winner's release leaves the table clean
		_ = Release(task, holder)
		return false
	}
	return true
}

// Release delete this holder's lock row. Failures are logged and swallowed: release
// runs during cleanup paths that must not themselves fail.
func Release(task string, holder string) bool {
	if _, err := db.ExecSQL(`
			delete from csd_task_lock where task = ? and holder = ?
		`, task, holder,
	); err != nil {
		log.Errore(err)
		return false
	}
	return true
}

// taskWinner return the holder of the winning (smallest lock id) row for given task
func taskWinner(task string) (holder string, err error) {
	err = db.Query(`
			select holder from csd_task_lock where task = ? order by lock_id asc limit 1
		`, []interface{}{task}, func(m sqlutil.RowMap) error {
		holder = m.GetString("holder")
		return nil
	})
	return holder, err
}

// Holders list current holders for given task, winner first. Exposed for the API
// status surface and for debugging stuck locks.
func Holders(task string) (holders []string, err error) {
	err = db.Query(`
			select holder from csd_task_lock where task = ? order by lock_id asc
		`, []interface{}{task}, func(m sqlutil.RowMap) error {
		holders = append(holders, m.GetString("holder"))
		return nil
	})
	return holders, log.Errore(err)
}
