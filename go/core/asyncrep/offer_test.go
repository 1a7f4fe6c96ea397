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
	"strings"
	"testing"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/peerstate"
	"gitee.com/opengauss/clusterset4db/go/core/secret"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"gitee.com/opengauss/clusterset4db/go/util/tests"
)

func markInitialized(t *testing.T, initialized bool) {
	value := constant.ValueFalse
	if initialized {
		value = constant.ValueTrue
	}
	if err := peerstate.SetMemberValue(config.Config.UnitLabel, constant.MemberKeyUnitInitialized, value); err != nil {
		t.Fatal(err)
	}
}

func TestOfferCreatedDefersWhenClusterUninitialized(t *testing.T) {
	markInitialized(t, false)
	f := newFixture("offer-uninit", engineWith("", ""), true)

	trigger := offerTrigger(dtstruct.TriggerRelationCreated, 101)
	test := tests.S(t)
	test.ExpectNil(f.offer.HandleRelationCreated(trigger))

	deferred, ok := f.queue.Pop()
	test.ExpectTrue(ok)
	test.ExpectEquals(deferred.Attempt, 1)
	test.ExpectEquals(deferred.Kind, dtstruct.TriggerRelationCreated)
}

func TestOfferCreatedNonLeaderIsIdle(t *testing.T) {
	markInitialized(t, false)
	f := newFixture("offer-idle", engineWith("", ""), false)

	test := tests.S(t)
	test.ExpectNil(f.offer.HandleRelationCreated(offerTrigger(dtstruct.TriggerRelationCreated, 102)))
	test.ExpectEquals(f.queue.QueueLen(), 0)
	test.ExpectEquals(len(f.engine.commands), 0)
}

func TestOfferCreatedOnReplicaClusterBlocks(t *testing.T) {
	markInitialized(t, true)
	f := newFixture("offer-replica", engineWith(statusJSON("cluster-b", "REPLICA", 1), ""), true)

	trigger := offerTrigger(dtstruct.TriggerRelationCreated, 103)
	test := tests.S(t)
	test.ExpectNil(f.offer.HandleRelationCreated(trigger))

	isReplica, found, err := peerstate.GetRelationValue(103, constant.RelationOffer, constant.RelationKeyIsReplica)
	test.ExpectNil(err)
	test.ExpectTrue(found)
	test.ExpectEquals(isReplica, constant.ValueTrue)

	unitStatus, _, err := peerstate.GetMemberValue(config.Config.UnitLabel, constant.MemberKeyUnitStatus)
	test.ExpectNil(err)
	test.ExpectTrue(strings.HasPrefix(unitStatus, "blocked:"))

	// the readiness flag is never raised on the failure path
	test.ExpectFalse(peerstate.GroupFlagSet(constant.GroupKeyAsyncReady))

	state, err := f.offer.State(103)
	test.ExpectNil(err)
	test.ExpectEquals(state, StateFailed)
}

func TestOfferCreatedRaisesReadiness(t *testing.T) {
	markInitialized(t, true)
	f := newFixture("offer-ready", engineWith(statusJSON("cluster-a", "PRIMARY", 1), ""), true)

	test := tests.S(t)
	test.ExpectNil(f.offer.HandleRelationCreated(offerTrigger(dtstruct.TriggerRelationCreated, 104)))
	test.ExpectTrue(peerstate.GroupFlagSet(constant.GroupKeyAsyncReady))

	setName, found, err := peerstate.GetRelationValue(104, constant.RelationOffer, constant.RelationKeyClusterSetName)
	test.ExpectNil(err)
	test.ExpectTrue(found)
	test.ExpectEquals(setName, config.Config.ClusterSetDomainName)
}

func TestOfferCreateReplicationPublishesSetupData(t *testing.T) {
	markInitialized(t, true)
	f := newFixture("offer-setup", engineWith(statusJSON("cluster-a", "PRIMARY", 1), ""), true)

	trigger := offerTrigger(dtstruct.TriggerRelationCreated, 105)
	test := tests.S(t)
	test.ExpectNil(f.offer.HandleRelationCreated(trigger))
	test.ExpectNil(f.offer.CreateReplication(trigger))

	// readiness flag is consumed by the setup action
	test.ExpectFalse(peerstate.GroupFlagSet(constant.GroupKeyAsyncReady))

	secretID, found, err := peerstate.GetRelationValue(105, constant.RelationOffer, constant.RelationKeySecretID)
	test.ExpectNil(err)
	test.ExpectTrue(found)
	test.ExpectNotEquals(secretID, "")

	version, _, err := peerstate.GetRelationValue(105, constant.RelationOffer, constant.RelationKeyMySQLVersion)
	test.ExpectNil(err)
	test.ExpectEquals(version, "8.0.34")

	clusterName, _, err := peerstate.GetRelationValue(105, constant.RelationOffer, constant.RelationKeyClusterName)
	test.ExpectNil(err)
	test.ExpectEquals(clusterName, "cluster-a")

	// the granted secret carries every system account password
	content, err := secret.GetGranted(secretID, 105)
	test.ExpectNil(err)
	test.ExpectEquals(len(content), len(secret.SystemAccounts))
	test.ExpectNotEquals(content[constant.AccountRoot], "")

	// a second run must not mint a second secret
	test.ExpectNotNil(f.offer.CreateReplication(trigger))

	state, err := f.offer.State(105)
	test.ExpectNil(err)
	test.ExpectEquals(state, StateSyncing)
}

func TestOfferCreateReplicationRequiresReadiness(t *testing.T) {
	markInitialized(t, true)
	f := newFixture("offer-noflag", engineWith(statusJSON("cluster-a", "PRIMARY", 1), ""), true)

	// no relation-created ran, the flag is absent
	test := tests.S(t)
	test.ExpectNotNil(f.offer.CreateReplication(offerTrigger(dtstruct.TriggerRelationCreated, 106)))
}

func TestOfferCreateReplicationRejectsConsumerSide(t *testing.T) {
	markInitialized(t, true)
	f := newFixture("offer-wrongside", engineWith("", ""), true)
	tests.S(t).ExpectNotNil(f.offer.CreateReplication(consumerTrigger(dtstruct.TriggerRelationCreated, 107)))
}

func TestOfferInitializesReplicaCluster(t *testing.T) {
	markInitialized(t, true)
	const relationID = 108

	test := tests.S(t)
	test.ExpectNil(peerstate.SetRelationValue(relationID, constant.RelationOffer, constant.RelationKeySecretID, "secret-seeded"))
	test.ExpectNil(peerstate.SetRelationValue(relationID, constant.RelationConsumer, constant.RelationKeyEndpoint, "10.89.0.20:3306"))
	test.ExpectNil(peerstate.SetRelationValue(relationID, constant.RelationConsumer, constant.RelationKeyClusterName, "cluster-b"))
	test.ExpectNil(peerstate.SetRelationValue(relationID, constant.RelationConsumer, constant.RelationKeyNodeLabel, "unit-0"))

	// cluster-b absent from the set: global status unknown, state INITIALIZING
	f := newFixture("offer-init", engineWith(
		statusJSON("cluster-a", "PRIMARY", 2),
		setStatusJSON(map[string]string{"cluster-a": "OK"})), true)

	state, err := f.offer.State(relationID)
	test.ExpectNil(err)
	test.ExpectEquals(state, StateInitializing)

	test.ExpectNil(f.offer.HandleRelationChanged(offerTrigger(dtstruct.TriggerRelationChanged, relationID)))
	test.ExpectTrue(f.engine.issued("create_replica_cluster('10.89.0.20:3306', 'cluster-b'"))

	replicaState, found, err := peerstate.GetRelationValue(relationID, constant.RelationOffer, constant.RelationKeyReplicaState)
	test.ExpectNil(err)
	test.ExpectTrue(found)
	test.ExpectEquals(replicaState, constant.ReplicaStateInitialized)
}

func TestOfferReadyAfterReplicaSettles(t *testing.T) {
	markInitialized(t, true)
	const relationID = 109

	test := tests.S(t)
	test.ExpectNil(peerstate.SetRelationValue(relationID, constant.RelationOffer, constant.RelationKeySecretID, "secret-seeded"))
	test.ExpectNil(peerstate.SetRelationValue(relationID, constant.RelationConsumer, constant.RelationKeyEndpoint, "10.89.0.20:3306"))
	test.ExpectNil(peerstate.SetRelationValue(relationID, constant.RelationConsumer, constant.RelationKeyClusterName, "cluster-b"))

	f := newFixture("offer-settled", engineWith(
		statusJSON("cluster-a", "PRIMARY", 2),
		setStatusJSON(map[string]string{"cluster-a": "OK", "cluster-b": "OK"})), true)

	state, err := f.offer.State(relationID)
	test.ExpectNil(err)
	test.ExpectEquals(state, StateReady)

	// READY takes no action on relation-changed
	commandsBefore := len(f.engine.commands)
	test.ExpectNil(f.offer.HandleRelationChanged(offerTrigger(dtstruct.TriggerRelationChanged, relationID)))
	// only the state derivation's set status read may have run
	test.ExpectTrue(len(f.engine.commands)-commandsBefore <= 1)
}
