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
	"fmt"
	"time"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/base"
	"gitee.com/opengauss/clusterset4db/go/core/cluster"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/core/peerstate"
	"gitee.com/opengauss/clusterset4db/go/core/topology"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
)

// BrokenHandler handles a removed relation. Both sides observe the break
// independently; which path runs depends on whether this cluster is the one
// being disconnected or the one doing the disconnecting.
type BrokenHandler struct {
	Operator   *cluster.Operator
	Reconciler *topology.Reconciler
	IsLeader   func() bool

	// TearingDown marks a unit that is itself being destroyed; such a unit
	// does not wait for removal confirmation
	TearingDown func() bool

	PollInterval time.Duration
	PollAttempt  int

	// settleDelay gives the leader's peer data write time to land before
	// followers act on it
	settleDelay time.Duration
}

func NewBrokenHandler(operator *cluster.Operator, reconciler *topology.Reconciler, isLeader func() bool, tearingDown func() bool) *BrokenHandler {
	return &BrokenHandler{
		Operator:     operator,
		Reconciler:   reconciler,
		IsLeader:     isLeader,
		TearingDown:  tearingDown,
		PollInterval: constant.RelationBrokenPollInterval,
		PollAttempt:  constant.RelationBrokenPollAttempt,
		settleDelay:  constant.FollowerSettleDelay,
	}
}

// HandleRelationBroken runs the shared break path for either relation kind
func (h *BrokenHandler) HandleRelationBroken(t dtstruct.Trigger) error {
	// the transitional readiness flag never survives a break
	defer func() {
		if peerstate.GroupFlagSet(constant.GroupKeyAsyncReady) {
			_ = peerstate.ClearGroupValue(constant.GroupKeyAsyncReady)
		}
	}()

	if h.Reconciler.ClusterIsReplica() == dtstruct.TernaryFalse && h.Reconciler.MemberRole() != constant.MemberRoleUnset {
		return h.handleDisconnecting(t)
	}
	return h.handleDisconnected()
}

// handleDisconnected runs on the cluster being cut off: wait until the other
// side confirms removal from the set, then reset join state so this cluster
// can join again later
func (h *BrokenHandler) handleDisconnected() error {
	if h.TearingDown() {
		return nil
	}

	localName, _, err := peerstate.GetGroupValue(constant.GroupKeyClusterName)
	if err != nil {
		return err
	}
	if localName == "" {
		localName = config.Config.ClusterName
	}

	if err = peerstate.SetMemberValue(config.Config.UnitLabel, constant.MemberKeyUnitStatus, "waiting for removal from the cluster set"); err != nil {
		return err
	}

	removed := false
	for attempt := 0; attempt < h.PollAttempt; attempt++ {
		if attempt > 0 {
			time.Sleep(h.PollInterval)
		}
		setStatus := h.Operator.GetClusterSetStatus()
		if setStatus == nil {
			continue
		}
		if _, stillMember := setStatus.Clusters[localName]; !stillMember {
			removed = true
			break
		}
	}
	if !removed {
		return h.blockStatus("still part of the cluster set, promote this cluster to primary instead of removing the relation")
	}

	label := config.Config.UnitLabel
	if err = peerstate.ClearMemberValue(label, constant.MemberKeyUnitInitialized); err != nil {
		return err
	}
	if err = peerstate.SetMemberValue(label, constant.MemberKeyState, constant.MemberStateWaiting); err != nil {
		return err
	}

	if !h.IsLeader() {
		// let the leader's group writes land first
		time.Sleep(h.settleDelay)
		return h.blockStatus("detached from the cluster set")
	}

	if err = peerstate.RaiseGroupFlag(constant.GroupKeyRemovedFromClusterSet); err != nil {
		return err
	}
	if err = peerstate.ClearGroupValue(constant.GroupKeyUnitsAddedToCluster); err != nil {
		return err
	}
	base.AuditOperation("removed-from-cluster-set", label, localName, "detached by the primary side")
	return h.blockStatus("detached from the cluster set, recreate the application or rejoin the set")
}

// handleDisconnecting runs on the primary side: the leader removes the
// departing cluster from the set, forcing when its status already went bad
func (h *BrokenHandler) handleDisconnecting(t dtstruct.Trigger) error {
	defer h.Operator.GetClusterSetStatus()

	if !h.IsLeader() {
		return peerstate.SetMemberValue(config.Config.UnitLabel, constant.MemberKeyUnitStatus, "")
	}

	remote, err := peerstate.GetRelationData(t.Relation.ID, constant.RelationConsumer)
	if err != nil {
		return err
	}
	departing := remote[constant.RelationKeyClusterName]
	if departing == "" {
		// the consumer never published join data, nothing was ever added
		return nil
	}

	force := false
	if setStatus := h.Operator.GetClusterSetStatus(); setStatus != nil {
		switch setStatus.GlobalStatusOf(departing) {
		case constant.GlobalStatusInvalidated, constant.GlobalStatusUnknown:
			force = true
		}
	} else {
		force = true
	}
	if err = h.Operator.RemoveReplicaCluster(departing, force); err != nil {
		return err
	}
	base.AuditOperation("replica-cluster-removed", config.Config.UnitLabel, departing, fmt.Sprintf("removed on relation break (force=%v)", force))
	return nil
}

func (h *BrokenHandler) blockStatus(message string) error {
	log.Warningf(message)
	return peerstate.SetMemberValue(config.Config.UnitLabel, constant.MemberKeyUnitStatus, fmt.Sprintf("blocked: %s", message))
}
