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
	"errors"
)

// Per-operation error values for engine commands. Every facade operation wraps the
// underlying execution error with its own value so that call sites can tell which
// intent failed via errors.Is while still seeing the engine output in the message.
var (
	ErrCreateCluster           = errors.New("create cluster failed")
	ErrCreateClusterSet        = errors.New("create cluster set failed")
	ErrAddInstanceToCluster    = errors.New("add instance to cluster failed")
	ErrRejoinInstanceToCluster = errors.New("rejoin instance to cluster failed")
	ErrRemoveInstance          = errors.New("remove instance failed")
	ErrCreateReplicaCluster    = errors.New("create replica cluster failed")
	ErrPromoteCluster          = errors.New("promote cluster to primary failed")
	ErrForceQuorum             = errors.New("force quorum from instance failed")
	ErrSetClusterPrimary       = errors.New("set cluster primary failed")
	ErrRemoveReplicaCluster    = errors.New("remove replica cluster failed")
	ErrRejoinCluster           = errors.New("rejoin cluster failed")
	ErrDissolveCluster         = errors.New("dissolve cluster failed")
	ErrFenceWrites             = errors.New("fence writes failed")
	ErrUnfenceWrites           = errors.New("unfence writes failed")

	// ErrLockBusy reports a guarded operation that could not get the task lock.
	// Teardown-class callers retry with backoff; action-class callers fail fast.
	ErrLockBusy = errors.New("task lock not acquired")

	// ErrSecretNotFound reports a secret id that has no stored content yet. This is an
	// expected race while a grant propagates, handled by deferring the triggering event.
	ErrSecretNotFound = errors.New("secret not found")
)
