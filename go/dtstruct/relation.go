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
package dtstruct

import (
	"fmt"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
)

// Relation is an established async replication channel between two clusters' leaders.
// Kind names the side this member plays: the offer side publishes setup data, the
// consumer side publishes join data. Data travels as last-write-wins key/value pairs,
// each side writing its own keys and polling the other side's.
type Relation struct {
	ID   int64
	Kind string // constant.RelationOffer or constant.RelationConsumer
}

func (r *Relation) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// IsOffer tell if this member sits on the offer (primary cluster) side
func (r *Relation) IsOffer() bool {
	return r != nil && r.Kind == constant.RelationOffer
}

// IsConsumer tell if this member sits on the consumer (replica cluster) side
func (r *Relation) IsConsumer() bool {
	return r != nil && r.Kind == constant.RelationConsumer
}

// Trigger is one externally-delivered event: a relation lifecycle notice or an
// operator action. Attempt counts redeliveries of a deferred trigger.
type Trigger struct {
	Kind     string // relation-created | relation-changed | relation-broken | relation-departed
	Relation Relation
	Attempt  int
}

const (
	TriggerRelationCreated  = "relation-created"
	TriggerRelationChanged  = "relation-changed"
	TriggerRelationBroken   = "relation-broken"
	TriggerRelationDeparted = "relation-departed"
)

func (t Trigger) String() string {
	return fmt.Sprintf("%s[%s]#%d", t.Kind, t.Relation.String(), t.Attempt)
}
