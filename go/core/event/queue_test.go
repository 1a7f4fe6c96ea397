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
package event

import (
	"testing"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"gitee.com/opengauss/clusterset4db/go/test"
	"gitee.com/opengauss/clusterset4db/go/util/tests"
)

func init() {
	test.DBTestInit()
}

func consumerTrigger(kind string, id int64) dtstruct.Trigger {
	return dtstruct.Trigger{Kind: kind, Relation: dtstruct.Relation{ID: id, Kind: constant.RelationConsumer}}
}

func TestPushPopOrdered(t *testing.T) {
	q := CreateOrReturnQueue("ordered")
	q.Push(consumerTrigger(dtstruct.TriggerRelationCreated, 1))
	q.Push(consumerTrigger(dtstruct.TriggerRelationChanged, 1))

	test := tests.S(t)
	test.ExpectEquals(q.QueueLen(), 2)

	first, ok := q.Pop()
	test.ExpectTrue(ok)
	test.ExpectEquals(first.Kind, dtstruct.TriggerRelationCreated)

	second, ok := q.Pop()
	test.ExpectTrue(ok)
	test.ExpectEquals(second.Kind, dtstruct.TriggerRelationChanged)

	_, ok = q.Pop()
	test.ExpectFalse(ok)
}

func TestPushDeduplicates(t *testing.T) {
	q := CreateOrReturnQueue("dedupe")
	q.Push(consumerTrigger(dtstruct.TriggerRelationChanged, 7))
	q.Push(consumerTrigger(dtstruct.TriggerRelationChanged, 7))
	q.Push(consumerTrigger(dtstruct.TriggerRelationChanged, 8))

	test := tests.S(t)
	test.ExpectEquals(q.QueueLen(), 2)
}

func TestDeferBumpsAttemptAndGivesUp(t *testing.T) {
	config.Config.DeferredEventMaxAttempt = 2
	q := CreateOrReturnQueue("defer")

	trigger := consumerTrigger(dtstruct.TriggerRelationChanged, 3)
	test := tests.S(t)
	test.ExpectTrue(q.Defer(trigger))

	requeued, ok := q.Pop()
	test.ExpectTrue(ok)
	test.ExpectEquals(requeued.Attempt, 1)

	test.ExpectTrue(q.Defer(requeued))
	requeued, _ = q.Pop()
	test.ExpectEquals(requeued.Attempt, 2)

	// budget spent, trigger is dropped
	test.ExpectFalse(q.Defer(requeued))
	test.ExpectEquals(q.QueueLen(), 0)
}

func TestReloadRestoresQueuedTriggers(t *testing.T) {
	q := CreateOrReturnQueue("reload")
	q.Push(consumerTrigger(dtstruct.TriggerRelationBroken, 5))

	// a fresh queue over the same backend sees the queued trigger
	restored := &Queue{name: "reload-restored", queued: make(map[triggerKey]bool)}
	test := tests.S(t)
	test.ExpectNil(restored.Reload())
	test.ExpectTrue(restored.QueueLen() >= 1)
}
