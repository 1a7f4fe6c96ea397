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
)

// Offer is the primary side of an async replication relation. Only the leader
// of the primary cluster acts; every other member's offer side is idle.
type Offer struct {
	Operator   *cluster.Operator
	Reconciler *topology.Reconciler
	Queue      *event.Queue
	IsLeader   func() bool
}

func NewOffer(operator *cluster.Operator, reconciler *topology.Reconciler, queue *event.Queue, isLeader func() bool) *Offer {
	return &Offer{Operator: operator, Reconciler: reconciler, Queue: queue, IsLeader: isLeader}
}

// State derives the offer side state for a relation from visible keys
func (o *Offer) State(relationID int64) (State, error) {
	local, remote, err := relationData(relationID)
	if err != nil {
		return StateUninitialized, err
	}
	return deriveOfferState(local, remote, func(clusterName string) string {
		setStatus := o.Operator.GetClusterSetStatus()
		if setStatus == nil {
			return constant.GlobalStatusUnknown
		}
		return setStatus.GlobalStatusOf(clusterName)
	}), nil
}

// HandleRelationCreated validates this cluster can offer replication and
// raises the ephemeral async-ready flag consumed by CreateReplication. An
// uninitialized cluster defers the trigger rather than polling.
func (o *Offer) HandleRelationCreated(t dtstruct.Trigger) error {
	if !o.IsLeader() {
		return nil
	}

	initialized, _, err := peerstate.GetMemberValue(config.Config.UnitLabel, constant.MemberKeyUnitInitialized)
	if err != nil {
		return err
	}
	if initialized != constant.ValueTrue {
		o.Queue.Defer(t)
		return nil
	}

	if o.Reconciler.ClusterIsReplica() == dtstruct.TernaryTrue {
		if err = peerstate.SetRelationValue(t.Relation.ID, constant.RelationOffer, constant.RelationKeyIsReplica, constant.ValueTrue); err != nil {
			return err
		}
		return o.blockStatus("this cluster is itself a replica and cannot offer replication, remove the relation")
	}

	if err = peerstate.SetRelationValue(t.Relation.ID, constant.RelationOffer, constant.RelationKeyClusterSetName, config.Config.ClusterSetDomainName); err != nil {
		return err
	}
	return peerstate.RaiseGroupFlag(constant.GroupKeyAsyncReady)
}

// CreateReplication is the operator-triggered setup action: it derives the
// password-only secret, grants it to the relation and publishes the keys the
// consumer needs to request a join. Guarded so a double run is a no-op failure
// rather than a second secret.
func (o *Offer) CreateReplication(t dtstruct.Trigger) error {
	if !o.IsLeader() {
		return log.Errorf("create-replication must run on the leader")
	}
	if t.Relation.IsConsumer() {
		return log.Errorf("create-replication applies to the offer side only")
	}
	if !peerstate.GroupFlagSet(constant.GroupKeyAsyncReady) {
		return log.Errorf("replication offer is not ready, relate the clusters first")
	}
	initialized, _, err := peerstate.GetMemberValue(config.Config.UnitLabel, constant.MemberKeyUnitInitialized)
	if err != nil {
		return err
	}
	if initialized != constant.ValueTrue {
		return log.Errorf("cluster is not initialized yet")
	}
	if existing, found, err := peerstate.GetRelationValue(t.Relation.ID, constant.RelationOffer, constant.RelationKeySecretID); err != nil {
		return err
	} else if found && existing != "" {
		return log.Errorf("replication is already set up for relation %d", t.Relation.ID)
	}

	passwords, err := secret.EnsureGroupSecret()
	if err != nil {
		return err
	}
	secretID, err := secret.Create(passwords)
	if err != nil {
		return err
	}
	if err = secret.Grant(secretID, t.Relation.ID); err != nil {
		return err
	}

	version, err := o.Operator.GetMySQLVersion()
	if err != nil {
		return err
	}
	clusterName := config.Config.ClusterName
	if status := o.Operator.GetClusterStatusCached(); status != nil && status.ClusterName != "" {
		clusterName = status.ClusterName
	}

	pairs := map[string]string{
		constant.RelationKeySecretID:        secretID,
		constant.RelationKeyClusterName:     clusterName,
		constant.RelationKeyMySQLVersion:    version,
		constant.RelationKeyReplicationName: fmt.Sprintf("%s-%d", constant.RelationConsumer, t.Relation.ID),
	}
	for key, value := range pairs {
		if err = peerstate.SetRelationValue(t.Relation.ID, constant.RelationOffer, key, value); err != nil {
			return err
		}
	}
	// the ephemeral readiness flag is consumed by the setup action
	if err = peerstate.ClearGroupValue(constant.GroupKeyAsyncReady); err != nil {
		return err
	}
	base.AuditOperation("create-replication", config.Config.UnitLabel, clusterName, fmt.Sprintf("offered replication on relation %d", t.Relation.ID))
	return nil
}

// HandleRelationChanged advances the offer side after the consumer published
// its join data
func (o *Offer) HandleRelationChanged(t dtstruct.Trigger) error {
	if !o.IsLeader() {
		return nil
	}

	state, err := o.State(t.Relation.ID)
	if err != nil {
		return err
	}
	switch state {
	case StateInitializing:
		return o.initializeReplica(t)
	case StateRecovering:
		// the consumer side drives recovery, nothing to write here
		return peerstate.SetMemberValue(config.Config.UnitLabel, constant.MemberKeyUnitStatus, "recovering replica cluster")
	}
	return nil
}

// initializeReplica seeds the consumer's advertised endpoint as a replica
// cluster of this set
func (o *Offer) initializeReplica(t dtstruct.Trigger) error {
	remote, err := peerstate.GetRelationData(t.Relation.ID, constant.RelationConsumer)
	if err != nil {
		return err
	}
	endpoint := remote[constant.RelationKeyEndpoint]
	clusterName := remote[constant.RelationKeyClusterName]
	label := remote[constant.RelationKeyNodeLabel]
	if endpoint == "" || clusterName == "" {
		return log.Errorf("relation %d has incomplete join data", t.Relation.ID)
	}

	donor := o.Reconciler.SelectDonor(o.Operator.GetClusterStatusCached())
	if err = o.Operator.CreateReplicaCluster(endpoint, clusterName, label, donor); err != nil {
		return err
	}
	if err = peerstate.SetRelationValue(t.Relation.ID, constant.RelationOffer, constant.RelationKeyReplicaState, constant.ReplicaStateInitialized); err != nil {
		return err
	}
	base.AuditOperation("replica-cluster-created", config.Config.UnitLabel, clusterName, fmt.Sprintf("seeded from %s", endpoint))
	o.Operator.GetClusterSetStatus()
	return nil
}

func (o *Offer) blockStatus(message string) error {
	log.Warningf(message)
	return peerstate.SetMemberValue(config.Config.UnitLabel, constant.MemberKeyUnitStatus, fmt.Sprintf("blocked: %s", message))
}
