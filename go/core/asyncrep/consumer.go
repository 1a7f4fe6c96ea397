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

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/base"
	"gitee.com/opengauss/clusterset4db/go/core/cluster"
	"gitee.com/opengauss/clusterset4db/go/core/event"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/core/peerstate"
	"gitee.com/opengauss/clusterset4db/go/core/secret"
	"gitee.com/opengauss/clusterset4db/go/core/topology"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"gitee.com/opengauss/clusterset4db/go/util"
)

// Consumer is the replica side of an async replication relation. The leader
// drives credential sync and the join handshake; followers only normalize
// their own member state so the ordinary join logic picks them up.
type Consumer struct {
	Operator   *cluster.Operator
	Reconciler *topology.Reconciler
	Queue      *event.Queue
	IsLeader   func() bool
}

func NewConsumer(operator *cluster.Operator, reconciler *topology.Reconciler, queue *event.Queue, isLeader func() bool) *Consumer {
	return &Consumer{Operator: operator, Reconciler: reconciler, Queue: queue, IsLeader: isLeader}
}

// State derives the consumer side state for a relation from visible keys
func (c *Consumer) State(relationID int64) (State, error) {
	offerData, consumerData, err := relationData(relationID)
	if err != nil {
		return StateUninitialized, err
	}
	onlineCount := 0
	if status := c.Operator.GetClusterStatusCached(); status != nil {
		onlineCount = status.OnlineCount()
	}
	return deriveConsumerState(consumerData, offerData, onlineCount), nil
}

// returning tells whether this application previously detached from the very
// cluster set now offering the relation
func (c *Consumer) returning(relationID int64) bool {
	if !peerstate.GroupFlagSet(constant.GroupKeyRemovedFromClusterSet) {
		return false
	}
	offered, _, err := peerstate.GetRelationValue(relationID, constant.RelationOffer, constant.RelationKeyClusterSetName)
	if err != nil || offered == "" {
		return false
	}
	known, _, err := peerstate.GetGroupValue(constant.GroupKeyClusterSetDomainName)
	if err != nil {
		return false
	}
	return offered == known
}

// HandleRelationCreated guards against joining a set with pre-existing
// application data. A returning cluster skips the guard: its data is the set's
// own data.
func (c *Consumer) HandleRelationCreated(t dtstruct.Trigger) error {
	if !c.IsLeader() {
		return c.followerRelationCreated()
	}
	if c.returning(t.Relation.ID) {
		return nil
	}

	hasUserData, err := c.Operator.HasUserData()
	if err != nil {
		return err
	}
	if hasUserData {
		if err = peerstate.SetRelationValue(t.Relation.ID, constant.RelationConsumer, constant.RelationKeyUserDataFound, constant.ValueTrue); err != nil {
			return err
		}
		return c.blockStatus("pre-existing user data found, this cluster may not join a cluster set")
	}
	return nil
}

// HandleRelationChanged advances the consumer side one derived state at a time
func (c *Consumer) HandleRelationChanged(t dtstruct.Trigger) error {
	if !c.IsLeader() {
		return c.followerRelationChanged(t)
	}

	state, err := c.State(t.Relation.ID)
	if err != nil {
		return err
	}
	switch state {
	case StateSyncing:
		return c.syncCredentials(t)
	case StateReady:
		return c.settleReady(t)
	case StateRecovering:
		return c.recoverMembers(t)
	}
	// INITIALIZING is the offer side's move (creating the replica cluster)
	return nil
}

// syncCredentials runs the one-time handshake: apply the offered system
// account passwords, dissolve the throwaway local cluster and publish this
// side's join data
func (c *Consumer) syncCredentials(t dtstruct.Trigger) error {
	relationID := t.Relation.ID

	// a returning cluster first recreates its local cluster from scratch, then
	// defers once so creation completes before credentials sync
	if c.returning(relationID) {
		localName, _, err := peerstate.GetGroupValue(constant.GroupKeyClusterName)
		if err != nil {
			return err
		}
		if localName == "" {
			localName = config.Config.ClusterName
		}
		if err = c.Operator.CreateCluster(localName); err != nil {
			return err
		}
		if err = peerstate.RaiseGroupFlag(constant.GroupKeyRejoinSecondaries); err != nil {
			return err
		}
		if err = peerstate.ClearGroupValue(constant.GroupKeyRemovedFromClusterSet); err != nil {
			return err
		}
		c.Queue.Defer(t)
		return nil
	}

	// credentials must not race cluster formation
	status := c.Operator.GetClusterStatus()
	if status == nil || status.OnlineCount() < plannedGroupSize() {
		c.Queue.Defer(t)
		return nil
	}

	remote, err := peerstate.GetRelationData(relationID, constant.RelationOffer)
	if err != nil {
		return err
	}

	// the engine cannot replicate across differing server versions, and there
	// is no automatic remediation for it
	localVersion, err := c.Operator.GetMySQLVersion()
	if err != nil {
		return err
	}
	if remoteVersion := remote[constant.RelationKeyMySQLVersion]; remoteVersion != localVersion {
		return c.blockStatus(fmt.Sprintf("mysql version mismatch: offered %s, local %s", remoteVersion, localVersion))
	}

	content, err := secret.GetGranted(remote[constant.RelationKeySecretID], relationID)
	if errors.Is(err, dtstruct.ErrSecretNotFound) {
		// expected race with the grant propagating
		c.Queue.Defer(t)
		return nil
	}
	if err != nil {
		return err
	}
	for account, password := range content {
		// root is host scoped to localhost and never distributed
		host := "%"
		if account == constant.AccountRoot {
			host = "localhost"
		}
		if err = c.Operator.SetAccountPassword(account, host, password); err != nil {
			return err
		}
	}

	// the local cluster existed only to receive these credentials
	if err = c.Operator.DissolveCluster(true); err != nil {
		return err
	}
	if err = peerstate.ClearGroupValue(constant.GroupKeyUnitsAddedToCluster); err != nil {
		return err
	}

	localName, err := c.resolveLocalClusterName(remote[constant.RelationKeyClusterName])
	if err != nil {
		return err
	}
	pairs := map[string]string{
		constant.RelationKeyClusterName: localName,
		constant.RelationKeyEndpoint:    config.Config.UnitAddress,
		constant.RelationKeyNodeLabel:   config.Config.UnitLabel,
	}
	for key, value := range pairs {
		if err = peerstate.SetRelationValue(relationID, constant.RelationConsumer, key, value); err != nil {
			return err
		}
	}
	base.AuditOperation("replication-join-requested", config.Config.UnitLabel, localName, fmt.Sprintf("published join data on relation %d", relationID))
	return nil
}

// resolveLocalClusterName renames the local cluster with a short random suffix
// when it collides with the offered primary cluster's name. The rename is a
// purely local affair; the other side's name is never touched.
func (c *Consumer) resolveLocalClusterName(remoteName string) (string, error) {
	localName, _, err := peerstate.GetGroupValue(constant.GroupKeyClusterName)
	if err != nil {
		return "", err
	}
	if localName == "" {
		localName = config.Config.ClusterName
	}
	if localName == remoteName {
		localName = fmt.Sprintf("%s-%s", localName, util.RandomSuffix(constant.ClusterNameSuffixLength))
		log.Warningf("cluster name collides with the offered primary cluster, renamed locally to %s", localName)
	}
	if err = peerstate.SetGroupValue(constant.GroupKeyClusterName, localName); err != nil {
		return "", err
	}
	return localName, nil
}

// settleReady propagates the authoritative domain name once the replica
// cluster is fully formed
func (c *Consumer) settleReady(t dtstruct.Trigger) error {
	remote, err := peerstate.GetRelationData(t.Relation.ID, constant.RelationOffer)
	if err != nil {
		return err
	}
	if domainName := remote[constant.RelationKeyClusterSetName]; domainName != "" {
		if err = peerstate.SetGroupValue(constant.GroupKeyClusterSetDomainName, domainName); err != nil {
			return err
		}
	}
	// single unit deployments never pass through RECOVERING, so the join
	// counter is set directly
	if config.Config.PlannedUnitCount == 1 {
		return peerstate.RaiseGroupCounter(constant.GroupKeyUnitsAddedToCluster, 1)
	}
	return nil
}

// recoverMembers unblocks follower joins one at a time by publishing the live
// online count, and advertises this member as a joinable primary
func (c *Consumer) recoverMembers(t dtstruct.Trigger) error {
	status := c.Operator.GetClusterStatus()
	if status == nil {
		c.Queue.Defer(t)
		return nil
	}
	if err := peerstate.RaiseGroupCounter(constant.GroupKeyUnitsAddedToCluster, status.OnlineCount()); err != nil {
		return err
	}
	label := config.Config.UnitLabel
	if err := peerstate.SetMemberValue(label, constant.MemberKeyState, constant.MemberStateOnline); err != nil {
		return err
	}
	if err := peerstate.SetMemberValue(label, constant.MemberKeyRole, constant.MemberRolePrimary); err != nil {
		return err
	}
	// re-evaluate after followers react to the new counter
	c.Queue.Defer(t)
	return nil
}

// followerRelationCreated parks this member in the waiting state so status
// reporting and auto-rejoin leave it alone. Idempotent.
func (c *Consumer) followerRelationCreated() error {
	label := config.Config.UnitLabel
	state, _, err := peerstate.GetMemberValue(label, constant.MemberKeyState)
	if err != nil {
		return err
	}
	if state == constant.MemberStateWaiting {
		return nil
	}
	return peerstate.SetMemberValue(label, constant.MemberKeyState, constant.MemberStateWaiting)
}

// followerRelationChanged resets a follower to waiting once the offer side has
// initialized the replica cluster (or a returning leader flagged secondaries
// to rejoin), so the ordinary join logic picks it up
func (c *Consumer) followerRelationChanged(t dtstruct.Trigger) error {
	replicaState, _, err := peerstate.GetRelationValue(t.Relation.ID, constant.RelationOffer, constant.RelationKeyReplicaState)
	if err != nil {
		return err
	}
	if replicaState != constant.ReplicaStateInitialized && !peerstate.GroupFlagSet(constant.GroupKeyRejoinSecondaries) {
		return nil
	}

	label := config.Config.UnitLabel
	if status := c.Operator.GetClusterStatusCached(); status != nil {
		if instance, ok := status.Topology[label]; ok && instance.IsOnline() {
			return nil
		}
	}
	if err = peerstate.ClearMemberValue(label, constant.MemberKeyUnitInitialized); err != nil {
		return err
	}
	return peerstate.SetMemberValue(label, constant.MemberKeyState, constant.MemberStateWaiting)
}

func (c *Consumer) blockStatus(message string) error {
	log.Warningf(message)
	return peerstate.SetMemberValue(config.Config.UnitLabel, constant.MemberKeyUnitStatus, fmt.Sprintf("blocked: %s", message))
}
