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

// Package asyncrep implements the two cooperating sides of cross cluster
// asynchronous replication: the offer side on the primary cluster's leader and
// the consumer side on the replica cluster's leader. All coordination between
// the two runs through per relation key-value data; a side's state is always
// derived freshly from the currently visible keys, never stored, so a reader
// that misses intermediate writes still converges on re-evaluation.
package asyncrep

import (
	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/peerstate"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
)

// State is a side's derived position in the replication lifecycle
type State int

const (
	StateUninitialized State = iota
	StateSyncing
	StateInitializing
	StateRecovering
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSyncing:
		return "syncing"
	case StateInitializing:
		return "initializing"
	case StateRecovering:
		return "recovering"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// relationData reads both sides' authored keys for a relation
func relationData(relationID int64) (offerData map[string]string, consumerData map[string]string, err error) {
	if offerData, err = peerstate.GetRelationData(relationID, constant.RelationOffer); err != nil {
		return nil, nil, err
	}
	if consumerData, err = peerstate.GetRelationData(relationID, constant.RelationConsumer); err != nil {
		return nil, nil, err
	}
	return offerData, consumerData, nil
}

// plannedGroupSize is the member count at which a cluster counts as fully formed
func plannedGroupSize() int {
	if config.Config.MaxGroupSize < config.Config.PlannedUnitCount {
		return config.Config.MaxGroupSize
	}
	return config.Config.PlannedUnitCount
}

// deriveOfferState computes the offer side state from relation data plus the
// remote replica cluster's global status (supplied by the caller, since only
// READY/INITIALIZING/RECOVERING discrimination needs it)
func deriveOfferState(local map[string]string, remote map[string]string, globalStatusOfRemote func(clusterName string) string) State {
	if len(local) == 0 {
		return StateUninitialized
	}
	if local[constant.RelationKeyIsReplica] == constant.ValueTrue {
		return StateFailed
	}
	if local[constant.RelationKeySecretID] == "" {
		return StateUninitialized
	}
	if remote[constant.RelationKeyEndpoint] == "" {
		return StateSyncing
	}
	globalStatus := globalStatusOfRemote(remote[constant.RelationKeyClusterName])
	if dtstruct.IsSettledGlobalStatus(globalStatus) {
		return StateReady
	}
	if globalStatus == constant.GlobalStatusUnknown {
		return StateInitializing
	}
	return StateRecovering
}

// deriveConsumerState computes the consumer side state from relation data plus
// the local cluster's live online member count
func deriveConsumerState(local map[string]string, remote map[string]string, onlineCount int) State {
	if local[constant.RelationKeyUserDataFound] == constant.ValueTrue {
		return StateFailed
	}
	if remote[constant.RelationKeySecretID] != "" && local[constant.RelationKeyEndpoint] == "" {
		return StateSyncing
	}
	if remote[constant.RelationKeyReplicaState] == constant.ReplicaStateInitialized {
		if onlineCount >= plannedGroupSize() {
			return StateReady
		}
		return StateRecovering
	}
	return StateInitializing
}
