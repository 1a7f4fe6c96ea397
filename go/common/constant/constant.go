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
package constant

import (
	"time"
)

const (
	// app config
	WhoAmI = "clusterset4db"

	// default config
	DefaultBackendDB         = BackendDBSqlite
	DefaultStatusAPIEndpoint = "/api/status"

	// backend database type
	BackendDBMysql  = "mysql"
	BackendDBSqlite = "sqlite3"

	// retry budget for engine status reads
	StatusReadRetry         = 3
	StatusReadRetryInterval = 2 * time.Second

	// retry budget for instance removal racing other members' teardown
	RemoveInstanceRetry      = 15
	RemoveInstanceBackoffMin = 4  // second
	RemoveInstanceBackoffMax = 30 // second

	// relation broken: poll until the other side confirms removal from the set
	RelationBrokenPollInterval = 10 * time.Second
	RelationBrokenPollAttempt  = 30

	// member state
	MemberStateWaiting = "waiting"
	MemberStateOnline  = "online"

	// member role
	MemberRolePrimary   = "primary"
	MemberRoleSecondary = "secondary"
	MemberRoleUnset     = "unset"
	MemberRoleUnknown   = "unknown"

	// cluster role within a cluster set
	ClusterRolePrimary = "primary"
	ClusterRoleReplica = "replica"

	// replica cluster global status as reported by the engine
	GlobalStatusOK          = "ok"
	GlobalStatusInvalidated = "invalidated"
	GlobalStatusUnknown     = "unknown"

	// instance status within a group replication cluster
	InstanceStatusOnline  = "online"
	InstanceModeReadOnly  = "r/o"
	InstanceModeReadWrite = "r/w"

	// relation kind: the two sides of an async replication relation
	RelationOffer    = "replication-offer"
	RelationConsumer = "replication"

	// relation data key (offer side writes)
	RelationKeySecretID        = "secret-id"
	RelationKeyClusterName     = "cluster-name"
	RelationKeyMySQLVersion    = "mysql-version"
	RelationKeyReplicationName = "replication-name"
	RelationKeyClusterSetName  = "cluster-set-name"
	RelationKeyIsReplica       = "is-replica"
	RelationKeyReplicaState    = "replica-state"

	// relation data key (consumer side writes)
	RelationKeyEndpoint      = "endpoint"
	RelationKeyNodeLabel     = "node-label"
	RelationKeyUserDataFound = "user-data-found"

	// relation data value
	ReplicaStateInitialized = "initialized"
	ValueTrue               = "true"
	ValueFalse              = "false"

	// group scope key in the peer state store
	GroupKeySecretID              = "secret-id"
	GroupKeyClusterName           = "cluster-name"
	GroupKeyClusterSetDomainName  = "cluster-set-domain-name"
	GroupKeyUnitsAddedToCluster   = "units-added-to-cluster"
	GroupKeyAsyncReady            = "async-ready"
	GroupKeyRemovedFromClusterSet = "removed-from-cluster-set"
	GroupKeyRejoinSecondaries     = "rejoin-secondaries"

	// member scope key in the peer state store
	MemberKeyState                   = "member-state"
	MemberKeyRole                    = "member-role"
	MemberKeyUnitInitialized         = "unit-initialized"
	MemberKeyUnitStatus              = "unit-status"
	MemberKeyTLS                     = "tls"
	MemberKeyTopologyChangeTimestamp = "topology-change-timestamp"

	// task name guarded by the shared table lock
	TaskInstanceAddition = "instance-addition"
	TaskInstanceRemoval  = "instance-removal"
	TaskUnitTeardown     = "unit-teardown"

	// system account whose credentials travel with the granted secret
	AccountRoot         = "root"
	AccountServerConfig = "serverconfig"
	AccountClusterAdmin = "clusteradmin"
	AccountMonitoring   = "monitoring"
	AccountBackup       = "backups"

	// suffix appended to a consumer cluster name colliding with the offer side
	ClusterNameSuffixLength = 4

	// short sleep for non leader members to let the leader's peer data write land
	FollowerSettleDelay = 5 * time.Second

	// metric
	MetricLockAcquire            = "lock.acquire"
	MetricLockContended          = "lock.contended"
	MetricClusterOperation       = "cluster.operation"
	MetricClusterOperationFailed = "cluster.operation.failed"
	MetricReconcile              = "reconcile.run"
	MetricAuditOpt               = "audit.write"
	MetricEventDeferred          = "event.deferred"

	// cache
	CacheNamePrefix       = "cache."
	CacheClusterStatus    = "cluster-status"
	CacheClusterSetStatus = "cluster-set-status"
	CacheExpireDefault    = 3 * time.Second
	CacheCleanupInterval  = time.Minute

	// date format
	DateFormat    = "2006-01-02 15:04:05"
	DateFormatLog = "2006-01-02 15:04:05"

	// random string
	RandomChars = "0123456789abcdefghijklmnopqurstuvwxyzABCDEFGHIJKLMNOPQURSTUVWXYZ"

	// leadership
	ActiveNodeExpireSeconds = 5

	// concurrency
	ConcurrencyBackendDBWrite = 20

	// engine status polling rate limit, per second
	StatusPollRateLimit = 2
)
