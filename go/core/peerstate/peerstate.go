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

// Package peerstate is the replicated key-value store members exchange state through.
// Two scopes exist: group-wide (written by the leader only) and per-member (each
// member writes its own). Relation-scoped data rides the same store, keyed by
// relation id and side. Writes are last-write-wins per key; there are no multi-key
// transactions, and every reader must tolerate observing a partial update.
package peerstate

import (
	"strconv"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/core/db"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/util/sqlutil"
)

// SetGroupValue write a group-wide key. Leader-only by convention; this is not enforced
// here because leadership is arbitrated elsewhere and enforcement would need the very
// store being written.
func SetGroupValue(key string, value string) error {
	_, err := db.ExecSQL(`
			replace into csd_group_state (
				state_key, state_value, last_updated_timestamp
			) values (
				?, ?, now()
			)
		`, key, value,
	)
	return log.Errore(err)
}

// GetGroupValue read a group-wide key; found is false when the key was never written
// or has been cleared
func GetGroupValue(key string) (value string, found bool, err error) {
	err = db.Query(`
			select state_value from csd_group_state where state_key = ?
		`, []interface{}{key}, func(m sqlutil.RowMap) error {
		value = m.GetString("state_value")
		found = true
		return nil
	})
	return value, found, log.Errore(err)
}

// ClearGroupValue delete a group-wide key
func ClearGroupValue(key string) error {
	_, err := db.ExecSQL(`delete from csd_group_state where state_key = ?`, key)
	return log.Errore(err)
}

// GroupFlagSet tell if a group-wide boolean flag is currently raised
func GroupFlagSet(key string) bool {
	value, found, err := GetGroupValue(key)
	if err != nil {
		return false
	}
	return found && value == constant.ValueTrue
}

// RaiseGroupFlag set a group-wide boolean flag
func RaiseGroupFlag(key string) error {
	return SetGroupValue(key, constant.ValueTrue)
}

// GetGroupCounter read a group-wide integer counter; zero when unset
func GetGroupCounter(key string) (int, error) {
	value, found, err := GetGroupValue(key)
	if err != nil || !found {
		return 0, err
	}
	count, err := strconv.Atoi(value)
	if err != nil {
		return 0, log.Errore(err)
	}
	return count, nil
}

// RaiseGroupCounter set a group-wide counter to given value, but never lower it.
// The counter only goes back down through an explicit ClearGroupValue.
func RaiseGroupCounter(key string, count int) error {
	current, err := GetGroupCounter(key)
	if err != nil {
		return err
	}
	if count <= current {
		return nil
	}
	return SetGroupValue(key, strconv.Itoa(count))
}

// SetMemberValue write a per-member key; members only write their own label
func SetMemberValue(label string, key string, value string) error {
	_, err := db.ExecSQL(`
			replace into csd_member_state (
				member_label, state_key, state_value, last_updated_timestamp
			) values (
				?, ?, ?, now()
			)
		`, label, key, value,
	)
	return log.Errore(err)
}

// GetMemberValue read another member's (or this member's own) key
func GetMemberValue(label string, key string) (value string, found bool, err error) {
	err = db.Query(`
			select state_value from csd_member_state where member_label = ? and state_key = ?
		`, []interface{}{label, key}, func(m sqlutil.RowMap) error {
		value = m.GetString("state_value")
		found = true
		return nil
	})
	return value, found, log.Errore(err)
}

// ClearMemberValue delete a per-member key
func ClearMemberValue(label string, key string) error {
	_, err := db.ExecSQL(`delete from csd_member_state where member_label = ? and state_key = ?`, label, key)
	return log.Errore(err)
}

// SetRelationValue write one key on one side of a relation. Each member only ever
// writes its own side; the other side's keys are read-only to it.
func SetRelationValue(relationID int64, side string, key string, value string) error {
	_, err := db.ExecSQL(`
			replace into csd_relation_state (
				relation_id, side, state_key, state_value, last_updated_timestamp
			) values (
				?, ?, ?, ?, now()
			)
		`, relationID, side, key, value,
	)
	return log.Errore(err)
}

// GetRelationValue read one key from one side of a relation
func GetRelationValue(relationID int64, side string, key string) (value string, found bool, err error) {
	err = db.Query(`
			select state_value from csd_relation_state where relation_id = ? and side = ? and state_key = ?
		`, []interface{}{relationID, side, key}, func(m sqlutil.RowMap) error {
		value = m.GetString("state_value")
		found = true
		return nil
	})
	return value, found, log.Errore(err)
}

// GetRelationData read all keys one side of a relation has published
func GetRelationData(relationID int64, side string) (data map[string]string, err error) {
	data = make(map[string]string)
	err = db.Query(`
			select state_key, state_value from csd_relation_state where relation_id = ? and side = ?
		`, []interface{}{relationID, side}, func(m sqlutil.RowMap) error {
		data[m.GetString("state_key")] = m.GetString("state_value")
		return nil
	})
	return data, log.Errore(err)
}

// ClearRelation drop all data both sides published on a relation. Called on teardown;
// best effort, the relation id is never reused.
func ClearRelation(relationID int64) error {
	_, err := db.ExecSQL(`delete from csd_relation_state where relation_id = ?`, relationID)
	return log.Errore(err)
}
