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

// Package cluster is the facade over the InnoDB Cluster admin api. Every
// operation maps one intent to one (occasionally two) mysqlsh invocations and
// wraps failure in the operation's own error value. Operations are not retried
// here except where noted; retry policy belongs to the caller.
package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/lock"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/core/metric"
	"gitee.com/opengauss/clusterset4db/go/core/shell"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"gitee.com/opengauss/clusterset4db/go/util"
	"github.com/rcrowley/go-metrics"
	"github.com/sjmudd/stopwatch"
	"golang.org/x/time/rate"
)

var operationCounter = metrics.NewCounter()
var operationFailedCounter = metrics.NewCounter()

// statusLimiter caps engine status polling across all callers of this process
var statusLimiter = rate.NewLimiter(rate.Limit(constant.StatusPollRateLimit), 1)

var statusCache = dtstruct.NewCache(constant.CacheClusterStatus, constant.CacheExpireDefault, constant.CacheCleanupInterval)

func init() {
	metrics.Register(constant.MetricClusterOperation, operationCounter)
	metrics.Register(constant.MetricClusterOperationFailed, operationFailedCounter)
	metrics.Register(statusCache.Name+".hit_rate", metrics.NewFunctionalGaugeFloat64(statusCache.HitRate))
}

// Operator executes cluster control operations against the local engine
type Operator struct {
	Runner  dtstruct.ShellRunner
	Querier dtstruct.SQLQuerier
}

// NewOperator build an operator against the local server per configuration
func NewOperator() *Operator {
	return &Operator{Runner: shell.NewMysqlshRunner(), Querier: &shell.LocalQuerier{}}
}

// run executes one admin api command, timing it and counting success/failure
func (o *Operator) run(name string, command string) (output string, err error) {
	operationCounter.Inc(1)
	latency := stopwatch.NewNamedStopwatch()
	_ = latency.Add(name)
	latency.Start(name)
	output, err = o.Runner.Run(command)
	latency.Stop(name)
	metric.Record(name, latency.Elapsed(name), err != nil)
	if err != nil {
		operationFailedCounter.Inc(1)
	}
	return output, err
}

// wrap ties an execution failure to the operation's error value, keeping the
// engine's own message visible
func wrap(opErr error, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", opErr, err)
}

// CreateCluster establishes the first group replication cluster on this instance
func (o *Operator) CreateCluster(name string) error {
	_, err := o.run("create-cluster", fmt.Sprintf("dba.create_cluster('%s')", name))
	return wrap(dtstruct.ErrCreateCluster, err)
}

// CreateClusterSet turns the local cluster into the primary of a new cluster set
func (o *Operator) CreateClusterSet(domainName string) error {
	_, err := o.run("create-cluster-set", fmt.Sprintf("dba.get_cluster().create_cluster_set('%s')", domainName))
	return wrap(dtstruct.ErrCreateClusterSet, err)
}

// AddInstanceToCluster joins an instance to the local cluster. Incremental
// recovery is attempted first; on failure the join is retried once with a full
// clone (optionally from the given donor) before the operation is given up on.
func (o *Operator) AddInstanceToCluster(address string, label string, donor string) error {
	_, err := o.run("add-instance", fmt.Sprintf(
		"dba.get_cluster().add_instance('%s', {'recoveryMethod': 'incremental', 'label': '%s'})", address, label))
	if err == nil {
		return nil
	}
	log.Warningf("incremental recovery failed for %s, falling back to clone: %v", address, err)

	options := fmt.Sprintf("'recoveryMethod': 'clone', 'label': '%s'", label)
	if donor != "" {
		options = fmt.Sprintf("%s, 'cloneDonor': '%s'", options, donor)
	}
	_, err = o.run("add-instance", fmt.Sprintf("dba.get_cluster().add_instance('%s', {%s})", address, options))
	return wrap(dtstruct.ErrAddInstanceToCluster, err)
}

// RejoinInstanceToCluster re-attaches a previously known instance
func (o *Operator) RejoinInstanceToCluster(address string) error {
	_, err := o.run("rejoin-instance", fmt.Sprintf("dba.get_cluster().rejoin_instance('%s')", address))
	return wrap(dtstruct.ErrRejoinInstanceToCluster, err)
}

// RemoveInstance detaches the labeled instance from the local cluster, or
// dissolves the cluster when it is the last online member and autoDissolve is
// set. Removal is guarded by the instance-removal task lock; teardown commonly
// races other members' teardown, so lock acquisition is retried with randomized
// backoff before giving up.
func (o *Operator) RemoveInstance(label string, autoDissolve bool) error {
	holder := config.Config.UnitLabel
	acquired := false
	for attempt := 0; attempt < constant.RemoveInstanceRetry; attempt++ {
		if acquired = lock.Acquire(constant.TaskInstanceRemoval, holder); acquired {
			break
		}
		time.Sleep(util.RandomSecondBetween(constant.RemoveInstanceBackoffMin, constant.RemoveInstanceBackoffMax))
	}
	if !acquired {
		return fmt.Errorf("remove instance %s: %w", label, dtstruct.ErrLockBusy)
	}
	defer lock.Release(constant.TaskInstanceRemoval, holder)

	status := o.GetClusterStatus()
	if status == nil {
		return wrap(dtstruct.ErrRemoveInstance, fmt.Errorf("cluster status unavailable"))
	}
	instance, ok := status.Topology[label]
	if !ok {
		// already gone, nothing to detach
		return nil
	}
	if autoDissolve && status.OnlineCount() <= 1 && instance.IsOnline() {
		return o.DissolveCluster(true)
	}
	_, err := o.run("remove-instance", fmt.Sprintf(
		"dba.get_cluster().remove_instance('%s', {'force': True})", instance.Address))
	return wrap(dtstruct.ErrRemoveInstance, err)
}

// clusterStatusPayload is the engine's nested status document
type clusterStatusPayload struct {
	ClusterName       string `json:"clusterName"`
	ClusterRole       string `json:"clusterRole"`
	DefaultReplicaSet struct {
		Primary  string                               `json:"primary"`
		Status   string                               `json:"status"`
		Topology map[string]*dtstruct.InstanceStatus `json:"topology"`
	} `json:"defaultReplicaSet"`
}

// GetClusterStatus reads a fresh topology snapshot of the local cluster.
// Returns nil on failure rather than an error: callers treat "unknown" as a
// legitimate transient state. Transient connection loss is smoothed over with a
// short fixed retry budget.
func (o *Operator) GetClusterStatus() *dtstruct.ClusterStatus {
	_ = statusLimiter.Wait(context.Background())
	for attempt := 0; attempt < constant.StatusReadRetry; attempt++ {
		if attempt > 0 {
			time.Sleep(constant.StatusReadRetryInterval)
		}
		output, err := o.run("cluster-status", "print(dba.get_cluster().status())")
		if err != nil {
			continue
		}
		payload := &clusterStatusPayload{}
		if err = json.Unmarshal([]byte(output), payload); err != nil {
			log.Erroref(err)
			continue
		}
		return &dtstruct.ClusterStatus{
			ClusterName: payload.ClusterName,
			ClusterRole: payload.ClusterRole,
			Primary:     payload.DefaultReplicaSet.Primary,
			Topology:    payload.DefaultReplicaSet.Topology,
			Status:      payload.DefaultReplicaSet.Status,
		}
	}
	return nil
}

// GetClusterStatusCached is GetClusterStatus behind a short lived cache, for
// read paths that tolerate slightly stale topology (status reporting, donor
// selection). Convergence decisions read fresh.
func (o *Operator) GetClusterStatusCached() *dtstruct.ClusterStatus {
	val, err := statusCache.GetVal(constant.CacheClusterStatus, func() (interface{}, error) {
		if status := o.GetClusterStatus(); status != nil {
			return status, nil
		}
		return nil, fmt.Errorf("cluster status unavailable")
	})
	if err != nil {
		return nil
	}
	return val.(*dtstruct.ClusterStatus)
}

// FlushStatusCache discards cached topology snapshots, forcing the next cached
// read to hit the engine. Exposed to the api for operator-driven refresh.
func FlushStatusCache() {
	statusCache.Flush()
}

// GetClusterSetStatus reads a fresh snapshot of the whole cluster set, nil on
// failure, same retry budget as GetClusterStatus
func (o *Operator) GetClusterSetStatus() *dtstruct.ClusterSetStatus {
	_ = statusLimiter.Wait(context.Background())
	for attempt := 0; attempt < constant.StatusReadRetry; attempt++ {
		if attempt > 0 {
			time.Sleep(constant.StatusReadRetryInterval)
		}
		output, err := o.run("cluster-set-status", "print(dba.get_cluster_set().status(extended=1))")
		if err != nil {
			continue
		}
		status := &dtstruct.ClusterSetStatus{}
		if err = json.Unmarshal([]byte(output), status); err != nil {
			log.Erroref(err)
			continue
		}
		return status
	}
	return nil
}

// GetClusterSetStatusCached is GetClusterSetStatus behind the same short lived
// cache, for status reporting paths
func (o *Operator) GetClusterSetStatusCached() *dtstruct.ClusterSetStatus {
	val, err := statusCache.GetVal(constant.CacheClusterSetStatus, func() (interface{}, error) {
		if status := o.GetClusterSetStatus(); status != nil {
			return status, nil
		}
		return nil, fmt.Errorf("cluster set status unavailable")
	})
	if err != nil {
		return nil
	}
	return val.(*dtstruct.ClusterSetStatus)
}

// CreateReplicaCluster seeds the instance at endpoint as a new replica cluster
// of the set. Same incremental to clone fallback as AddInstanceToCluster.
func (o *Operator) CreateReplicaCluster(endpoint string, name string, label string, donor string) error {
	_, err := o.run("create-replica-cluster", fmt.Sprintf(
		"dba.get_cluster_set().create_replica_cluster('%s', '%s', {'recoveryMethod': 'incremental', 'label': '%s'})",
		endpoint, name, label))
	if err == nil {
		return nil
	}
	log.Warningf("incremental recovery failed for replica cluster %s, falling back to clone: %v", name, err)

	options := fmt.Sprintf("'recoveryMethod': 'clone', 'label': '%s'", label)
	if donor != "" {
		options = fmt.Sprintf("%s, 'cloneDonor': '%s'", options, donor)
	}
	_, err = o.run("create-replica-cluster", fmt.Sprintf(
		"dba.get_cluster_set().create_replica_cluster('%s', '%s', {%s})", endpoint, name, options))
	return wrap(dtstruct.ErrCreateReplicaCluster, err)
}

// PromoteClusterToPrimary makes the named cluster the set primary. force uses
// the failover variant, for when the current primary is unreachable.
func (o *Operator) PromoteClusterToPrimary(name string, force bool) error {
	command := fmt.Sprintf("dba.get_cluster_set().set_primary_cluster('%s')", name)
	if force {
		command = fmt.Sprintf("dba.get_cluster_set().force_primary_cluster('%s')", name)
	}
	_, err := o.run("promote-cluster", command)
	return wrap(dtstruct.ErrPromoteCluster, err)
}

// ForceQuorumFromInstance restores quorum using the local instance as the
// authoritative partition. The engine insists on explicit credentials here
// rather than reusing the session, hence the full uri.
func (o *Operator) ForceQuorumFromInstance() error {
	_, err := o.run("force-quorum", fmt.Sprintf(
		"dba.get_cluster().force_quorum_using_partition_of('%s:%s@%s')",
		config.Config.MySQLUser, config.Config.MySQLPassword, config.Config.UnitAddress))
	return wrap(dtstruct.ErrForceQuorum, err)
}

// SetClusterPrimary moves the local cluster's primary role to given address
func (o *Operator) SetClusterPrimary(address string) error {
	_, err := o.run("set-primary-instance", fmt.Sprintf("dba.get_cluster().set_primary_instance('%s')", address))
	return wrap(dtstruct.ErrSetClusterPrimary, err)
}

// RemoveReplicaCluster detaches the named replica cluster from the set
func (o *Operator) RemoveReplicaCluster(name string, force bool) error {
	_, err := o.run("remove-cluster", fmt.Sprintf(
		"dba.get_cluster_set().remove_cluster('%s', {'force': %s})", name, pythonBool(force)))
	return wrap(dtstruct.ErrRemoveReplicaCluster, err)
}

// RejoinCluster restores the named cluster's membership in the set. Only valid
// while the target's global status is invalidated; anything else is either
// healthy or in flux and must not be forced back in.
func (o *Operator) RejoinCluster(name string) error {
	setStatus := o.GetClusterSetStatus()
	if setStatus == nil {
		return wrap(dtstruct.ErrRejoinCluster, fmt.Errorf("cluster set status unavailable"))
	}
	if globalStatus := setStatus.GlobalStatusOf(name); globalStatus != constant.GlobalStatusInvalidated {
		return wrap(dtstruct.ErrRejoinCluster, fmt.Errorf("cluster %s has global status %s, only invalidated clusters may rejoin", name, globalStatus))
	}
	_, err := o.run("rejoin-cluster", fmt.Sprintf("dba.get_cluster_set().rejoin_cluster('%s')", name))
	return wrap(dtstruct.ErrRejoinCluster, err)
}

// DissolveCluster destroys the local cluster. A set cannot be left without a
// primary, so when this cluster is the primary of a multi cluster set a sibling
// is promoted first and this cluster leaves the set as a replica.
func (o *Operator) DissolveCluster(force bool) error {
	status := o.GetClusterStatus()
	if status != nil && !status.IsReplica() {
		if setStatus := o.GetClusterSetStatus(); setStatus != nil && len(setStatus.Clusters) > 1 {
			sibling := ""
			for name := range setStatus.Clusters {
				if name != status.ClusterName {
					sibling = name
					break
				}
			}
			if err := o.PromoteClusterToPrimary(sibling, false); err != nil {
				return wrap(dtstruct.ErrDissolveCluster, err)
			}
			if err := o.RemoveReplicaCluster(status.ClusterName, force); err != nil {
				return wrap(dtstruct.ErrDissolveCluster, err)
			}
		}
	}
	_, err := o.run("dissolve-cluster", fmt.Sprintf("dba.get_cluster().dissolve({'force': %s})", pythonBool(force)))
	return wrap(dtstruct.ErrDissolveCluster, err)
}

// FenceWrites blocks writes on the primary cluster of the set
func (o *Operator) FenceWrites() error {
	_, err := o.run("fence-writes", "dba.get_cluster().fence_writes()")
	return wrap(dtstruct.ErrFenceWrites, err)
}

// UnfenceWrites restores writes on a fenced cluster
func (o *Operator) UnfenceWrites() error {
	_, err := o.run("unfence-writes", "dba.get_cluster().unfence_writes()")
	return wrap(dtstruct.ErrUnfenceWrites, err)
}

// HasUserData reports whether the local server carries any non system schema.
// Joining a cluster set wipes local data, so this gates the consumer side.
func (o *Operator) HasUserData() (bool, error) {
	value, err := o.Querier.QueryValue(`
		select count(*) from information_schema.schemata
		where schema_name not in ('mysql', 'information_schema', 'performance_schema', 'sys')
		`)
	if err != nil {
		return false, err
	}
	return value != "" && value != "0", nil
}

// GetMySQLVersion reads the local server version string
func (o *Operator) GetMySQLVersion() (string, error) {
	version, err := o.Querier.QueryValue("select @@version")
	return strings.TrimSpace(version), err
}

// SetAccountPassword alters a system account's password on the local primary
func (o *Operator) SetAccountPassword(account string, host string, password string) error {
	return o.Querier.Exec(fmt.Sprintf("alter user '%s'@'%s' identified by '%s'", account, host, password))
}

func pythonBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
