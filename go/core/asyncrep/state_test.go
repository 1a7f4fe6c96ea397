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
	"testing"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/util/tests"
)

func globalStatusFixed(status string) func(string) string {
	return func(string) string { return status }
}

func TestDeriveOfferState(t *testing.T) {
	test := tests.S(t)

	// no local data yet
	test.ExpectEquals(deriveOfferState(nil, nil, globalStatusFixed("")), StateUninitialized)
	test.ExpectEquals(deriveOfferState(map[string]string{}, nil, globalStatusFixed("")), StateUninitialized)

	// offering from a replica cluster is a terminal misconfiguration
	test.ExpectEquals(deriveOfferState(
		map[string]string{constant.RelationKeyIsReplica: constant.ValueTrue}, nil, globalStatusFixed("")), StateFailed)

	// local data without a secret is still pre-setup
	test.ExpectEquals(deriveOfferState(
		map[string]string{constant.RelationKeyClusterSetName: "clusterset-a"}, nil, globalStatusFixed("")), StateUninitialized)

	local := map[string]string{constant.RelationKeySecretID: "secret-x"}

	// credentials shared, waiting on the consumer's join request
	test.ExpectEquals(deriveOfferState(local, map[string]string{}, globalStatusFixed("")), StateSyncing)

	remote := map[string]string{
		constant.RelationKeyEndpoint:    "10.89.0.20:3306",
		constant.RelationKeyClusterName: "cluster-b",
	}
	test.ExpectEquals(deriveOfferState(local, remote, globalStatusFixed(constant.GlobalStatusOK)), StateReady)
	test.ExpectEquals(deriveOfferState(local, remote, globalStatusFixed(constant.GlobalStatusInvalidated)), StateReady)
	test.ExpectEquals(deriveOfferState(local, remote, globalStatusFixed(constant.GlobalStatusUnknown)), StateInitializing)
	test.ExpectEquals(deriveOfferState(local, remote, globalStatusFixed("recovering")), StateRecovering)
}

func TestDeriveConsumerState(t *testing.T) {
	savedPlanned := config.Config.PlannedUnitCount
	config.Config.PlannedUnitCount = 2
	defer func() { config.Config.PlannedUnitCount = savedPlanned }()

	test := tests.S(t)

	// pre-existing user data is a terminal block
	test.ExpectEquals(deriveConsumerState(
		map[string]string{constant.RelationKeyUserDataFound: constant.ValueTrue}, nil, 0), StateFailed)

	remote := map[string]string{constant.RelationKeySecretID: "secret-x"}
	test.ExpectEquals(deriveConsumerState(map[string]string{}, remote, 2), StateSyncing)

	// local endpoint published, replica cluster not yet initialized
	local := map[string]string{constant.RelationKeyEndpoint: "10.89.0.20:3306"}
	test.ExpectEquals(deriveConsumerState(local, remote, 2), StateInitializing)

	remote[constant.RelationKeyReplicaState] = constant.ReplicaStateInitialized
	test.ExpectEquals(deriveConsumerState(local, remote, 2), StateReady)
	test.ExpectEquals(deriveConsumerState(local, remote, 1), StateRecovering)
}

func TestPlannedGroupSizeIsCappedByMaxGroupSize(t *testing.T) {
	savedPlanned := config.Config.PlannedUnitCount
	savedMax := config.Config.MaxGroupSize
	defer func() {
		config.Config.PlannedUnitCount = savedPlanned
		config.Config.MaxGroupSize = savedMax
	}()

	test := tests.S(t)
	config.Config.PlannedUnitCount = 5
	config.Config.MaxGroupSize = 9
	test.ExpectEquals(plannedGroupSize(), 5)

	config.Config.PlannedUnitCount = 12
	test.ExpectEquals(plannedGroupSize(), 9)
}

func TestStateString(t *testing.T) {
	test := tests.S(t)
	test.ExpectEquals(StateUninitialized.String(), "uninitialized")
	test.ExpectEquals(StateSyncing.String(), "syncing")
	test.ExpectEquals(StateInitializing.String(), "initializing")
	test.ExpectEquals(StateRecovering.String(), "recovering")
	test.ExpectEquals(StateReady.String(), "ready")
	test.ExpectEquals(StateFailed.String(), "failed")
}
