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

// Package topology computes what should happen next for one member from a
// fresh read of cluster status, and performs at most one converging action per
// invocation. Further convergence waits for the next trigger; this keeps every
// evaluation cheap to reason about and safe to repeat.
package topology

import (
	"fmt"
	"time"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/base"
	"gitee.com/opengauss/clusterset4db/go/core/cluster"
	"gitee.com/opengauss/clusterset4db/go/core/lock"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/core/peerstate"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
)

// Reconciler derives this member's role from live cluster status and exposes
// the converging actions the state machine composes
type Reconciler struct {
	Operator *cluster.Operator
	IsLeader func() bool
}

func NewReconciler(operator *cluster.Operator, isLeader func() bool) *Reconciler {
	return &Reconciler{Operator: operator, IsLeader: isLeader}
}

// ClusterIsReplica tells whether the local cluster is a cluster set replica.
// Unknown when status cannot be read; callers must treat that as a legitimate
// transient state, not as "no".
func (r *Reconciler) ClusterIsReplica() dtstruct.Ternary {
	status := r.Operator.GetClusterStatusCached()
	if status == nil {
		return dtstruct.TernaryUnknown
	}
	if status.IsReplica() {
		return dtstruct.TernaryTrue
	}
	return dtstruct.TernaryFalse
}

// MemberRole reports this member's live membership role
func (r *Reconciler) MemberRole() string {
	status := r.Operator.GetClusterStatusCached()
	if status == nil {
		return constant.MemberRoleUnknown
	}
	return status.MemberRoleOf(config.Config.UnitLabel)
}

// RelationSide tells which side of an async replication relation this member
// is on, from the relation's kind
func (r *Reconciler) RelationSide(relation dtstruct.Relation) string {
	if relation.IsOffer() {
		return constant.RelationOffer
	}
	return constant.RelationConsumer
}

// SelectDonor picks a clone donor from live topology: a read-only secondary
// when one is online, keeping clone load off the primary; else the primary
// itself; else empty, leaving the choice to the engine.
func (r *Reconciler) SelectDonor(status *dtstruct.ClusterStatus) string {
	if status == nil {
		return ""
	}
	for _, instance := range status.Topology {
		if instance.IsReadOnlySecondary() {
			return instance.Address
		}
	}
	return status.Primary
}

// JoinInstance adds an instance to the local cluster under the instance
// addition lock. The primary is re-resolved after the guarded operation: the
// lock carries no fencing, so the primary may have moved while we held it.
func (r *Reconciler) JoinInstance(address string, label string) error {
	holder := config.Config.UnitLabel
	if !lock.Acquire(constant.TaskInstanceAddition, holder) {
		return dtstruct.ErrLockBusy
	}
	defer lock.Release(constant.TaskInstanceAddition, holder)

	donor := r.SelectDonor(r.Operator.GetClusterStatus())
	if err := r.Operator.AddInstanceToCluster(address, label, donor); err != nil {
		return err
	}
	if status := r.Operator.GetClusterStatus(); status != nil && status.Primary != "" {
		log.Debugf("post-join primary is %s", status.Primary)
	}
	return nil
}

// RejoinInstance re-attaches a previously known instance, lock-guarded the
// same way as JoinInstance
func (r *Reconciler) RejoinInstance(address string) error {
	holder := config.Config.UnitLabel
	if !lock.Acquire(constant.TaskInstanceAddition, holder) {
		return dtstruct.ErrLockBusy
	}
	defer lock.Release(constant.TaskInstanceAddition, holder)

	if err := r.Operator.RejoinInstanceToCluster(address); err != nil {
		return err
	}
	if status := r.Operator.GetClusterStatus(); status != nil && status.Primary != "" {
		log.Debugf("post-rejoin primary is %s", status.Primary)
	}
	return nil
}

// TeardownUnit removes this member's own instance from the cluster on unit
// departure, dissolving the cluster when it is the last online member. Guarded
// by the unit teardown lock. The recorded join state is reset so a later
// re-add of this unit starts over as a waiting member.
func (r *Reconciler) TeardownUnit() error {
	label := config.Config.UnitLabel
	if !lock.Acquire(constant.TaskUnitTeardown, label) {
		return dtstruct.ErrLockBusy
	}
	defer lock.Release(constant.TaskUnitTeardown, label)

	if err := r.Operator.RemoveInstance(label, true); err != nil {
		return err
	}
	if err := peerstate.SetMemberValue(label, constant.MemberKeyUnitInitialized, constant.ValueFalse); err != nil {
		return err
	}
	if err := peerstate.SetMemberValue(label, constant.MemberKeyState, constant.MemberStateWaiting); err != nil {
		return err
	}
	if err := peerstate.SetMemberValue(label, constant.MemberKeyRole, constant.MemberRoleUnset); err != nil {
		return err
	}
	if err := recordTopologyChange(label); err != nil {
		return err
	}
	base.AuditOperation("unit-teardown", label, config.Config.ClusterName, fmt.Sprintf("removed %s", config.Config.UnitAddress))
	return nil
}

// Converge performs at most one converging action for this member, returning
// whether anything was done. The action chosen depends on live status and this
// member's recorded join state.
func (r *Reconciler) Converge() (acted bool, err error) {
	label := config.Config.UnitLabel

	initialized, _, err := peerstate.GetMemberValue(label, constant.MemberKeyUnitInitialized)
	if err != nil {
		return false, err
	}
	status := r.Operator.GetClusterStatus()

	// leader bootstrap: nothing exists yet, create the cluster and its set
	if status == nil && initialized != constant.ValueTrue {
		if !r.IsLeader() {
			return false, nil
		}
		if err = r.bootstrap(); err != nil {
			return true, err
		}
		return true, nil
	}

	if status == nil {
		// initialized but status unreadable: wait for the next evaluation
		return false, nil
	}

	memberState, _, err := peerstate.GetMemberValue(label, constant.MemberKeyState)
	if err != nil {
		return false, err
	}
	_, inTopology := status.Topology[label]

	// a waiting member joins once a joinable primary exists and at least one
	// unit has been counted in
	if memberState == constant.MemberStateWaiting && !inTopology && status.Primary != "" {
		counter, err := peerstate.GetGroupCounter(constant.GroupKeyUnitsAddedToCluster)
		if err != nil {
			return false, err
		}
		if counter < 1 {
			return false, nil
		}
		if err = r.JoinInstance(config.Config.UnitAddress, label); err != nil {
			return true, err
		}
		if err = r.markJoined(counter); err != nil {
			return true, err
		}
		base.AuditOperation("instance-join", label, status.ClusterName, fmt.Sprintf("joined as %s", config.Config.UnitAddress))
		return true, nil
	}

	// a known member that dropped out of the live topology rejoins
	if initialized == constant.ValueTrue && inTopology && !status.Topology[label].IsOnline() {
		if err = r.RejoinInstance(config.Config.UnitAddress); err != nil {
			return true, err
		}
		base.AuditOperation("instance-rejoin", label, status.ClusterName, fmt.Sprintf("rejoined as %s", config.Config.UnitAddress))
		return true, nil
	}

	return false, nil
}

// bootstrap creates the first cluster and its owning set on the leader
func (r *Reconciler) bootstrap() error {
	label := config.Config.UnitLabel
	if err := r.Operator.CreateCluster(config.Config.ClusterName); err != nil {
		return err
	}
	if err := r.Operator.CreateClusterSet(config.Config.ClusterSetDomainName); err != nil {
		return err
	}
	if err := peerstate.SetGroupValue(constant.GroupKeyClusterName, config.Config.ClusterName); err != nil {
		return err
	}
	if err := peerstate.RaiseGroupCounter(constant.GroupKeyUnitsAddedToCluster, 1); err != nil {
		return err
	}
	if err := peerstate.SetMemberValue(label, constant.MemberKeyUnitInitialized, constant.ValueTrue); err != nil {
		return err
	}
	if err := peerstate.SetMemberValue(label, constant.MemberKeyState, constant.MemberStateOnline); err != nil {
		return err
	}
	if err := peerstate.SetMemberValue(label, constant.MemberKeyRole, constant.MemberRolePrimary); err != nil {
		return err
	}
	if err := recordTopologyChange(label); err != nil {
		return err
	}
	base.AuditOperation("cluster-bootstrap", label, config.Config.ClusterName, "created cluster and cluster set")
	return nil
}

// markJoined records a successful join in this member's own peer state
func (r *Reconciler) markJoined(currentCounter int) error {
	label := config.Config.UnitLabel
	if err := peerstate.SetMemberValue(label, constant.MemberKeyUnitInitialized, constant.ValueTrue); err != nil {
		return err
	}
	if err := peerstate.SetMemberValue(label, constant.MemberKeyState, constant.MemberStateOnline); err != nil {
		return err
	}
	if err := peerstate.SetMemberValue(label, constant.MemberKeyRole, constant.MemberRoleSecondary); err != nil {
		return err
	}
	if err := recordTopologyChange(label); err != nil {
		return err
	}
	return peerstate.RaiseGroupCounter(constant.GroupKeyUnitsAddedToCluster, currentCounter+1)
}

// recordTopologyChange stamps this member's advertised peer data after a
// membership change. Certificate issuance is not managed here, so every member
// advertises no TLS.
func recordTopologyChange(label string) error {
	if err := peerstate.SetMemberValue(label, constant.MemberKeyTLS, constant.ValueFalse); err != nil {
		return err
	}
	return peerstate.SetMemberValue(label, constant.MemberKeyTopologyChangeTimestamp, time.Now().Format(constant.DateFormat))
}
