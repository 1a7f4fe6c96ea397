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

// Package logic is the composition root: it wires the trigger queue, the
// topology reconciler, the async replication handlers and leadership election
// into one periodic loop, and exposes the operator actions the cli and the
// http api invoke.
package logic

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/asyncrep"
	"gitee.com/opengauss/clusterset4db/go/core/base"
	"gitee.com/opengauss/clusterset4db/go/core/cluster"
	"gitee.com/opengauss/clusterset4db/go/core/event"
	"gitee.com/opengauss/clusterset4db/go/core/ha/process"
	"gitee.com/opengauss/clusterset4db/go/core/kv"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	ometrics "gitee.com/opengauss/clusterset4db/go/core/metric"
	"gitee.com/opengauss/clusterset4db/go/core/topology"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"github.com/rcrowley/go-metrics"
)

const triggerQueueName = "relation-trigger"

var reconcileCounter = metrics.NewCounter()
var leaderGauge = metrics.NewGauge()

func init() {
	metrics.Register(constant.MetricReconcile, reconcileCounter)
	metrics.Register("leader.is_leader", leaderGauge)
}

var (
	setupOnce       sync.Once
	operator        *cluster.Operator
	reconciler      *topology.Reconciler
	triggerQueue    *event.Queue
	offerHandler    *asyncrep.Offer
	consumerHandler *asyncrep.Consumer
	brokenHandler   *asyncrep.BrokenHandler

	leaderState      int64
	tearingDownState int64
	reconcileRunning int64
)

// IsLeader answers from the last election tick; it does not hit the backend
func IsLeader() bool {
	return atomic.LoadInt64(&leaderState) == 1
}

func isTearingDown() bool {
	return atomic.LoadInt64(&tearingDownState) == 1
}

func setup() {
	setupOnce.Do(func() {
		operator = cluster.NewOperator()
		reconciler = topology.NewReconciler(operator, IsLeader)
		triggerQueue = event.CreateOrReturnQueue(triggerQueueName)
		offerHandler = asyncrep.NewOffer(operator, reconciler, triggerQueue, IsLeader)
		consumerHandler = asyncrep.NewConsumer(operator, reconciler, triggerQueue, IsLeader)
		brokenHandler = asyncrep.NewBrokenHandler(operator, reconciler, IsLeader, isTearingDown)
	})
}

// SubmitTrigger enqueues an externally delivered relation lifecycle notice for
// the next reconcile pass. Identical pending triggers collapse into one.
func SubmitTrigger(triggerKind string, relationKind string, relationID int64) error {
	setup()
	switch triggerKind {
	case dtstruct.TriggerRelationCreated, dtstruct.TriggerRelationChanged,
		dtstruct.TriggerRelationBroken, dtstruct.TriggerRelationDeparted:
	default:
		return log.Errorf("unknown trigger kind: %s", triggerKind)
	}
	switch relationKind {
	case constant.RelationOffer, constant.RelationConsumer:
	default:
		return log.Errorf("unknown relation kind: %s", relationKind)
	}
	triggerQueue.Push(dtstruct.Trigger{
		Kind:     triggerKind,
		Relation: dtstruct.Relation{ID: relationID, Kind: relationKind},
	})
	base.AuditOperation("submit-trigger", config.Config.UnitLabel, config.Config.ClusterName, dtstruct.Trigger{Kind: triggerKind, Relation: dtstruct.Relation{ID: relationID, Kind: relationKind}}.String())
	return nil
}

// ClusterStatus reports the local cluster topology, nil when the engine is
// unreachable
func ClusterStatus() *dtstruct.ClusterStatus {
	setup()
	return operator.GetClusterStatusCached()
}

// ClusterSetStatus reports the whole cluster set, nil when the engine is
// unreachable
func ClusterSetStatus() *dtstruct.ClusterSetStatus {
	setup()
	return operator.GetClusterSetStatusCached()
}

// CreateReplication runs the offer side setup action for the given relation
func CreateReplication(relationID int64) error {
	setup()
	return offerHandler.CreateReplication(dtstruct.Trigger{
		Kind:     dtstruct.TriggerRelationCreated,
		Relation: dtstruct.Relation{ID: relationID, Kind: constant.RelationOffer},
	})
}

// PromoteClusterToPrimary makes the named cluster the set primary; force uses
// the disaster recovery path for an unreachable current primary
func PromoteClusterToPrimary(name string, force bool) error {
	setup()
	if err := operator.PromoteClusterToPrimary(name, force); err != nil {
		return err
	}
	base.AuditOperation("promote-cluster", config.Config.UnitLabel, name, "promoted to primary")
	cluster.FlushStatusCache()
	return nil
}

// RejoinClusterSet rejoins the named invalidated cluster into the set
func RejoinClusterSet(name string) error {
	setup()
	if err := operator.RejoinCluster(name); err != nil {
		return err
	}
	base.AuditOperation("rejoin-cluster", config.Config.UnitLabel, name, "rejoined cluster set")
	cluster.FlushStatusCache()
	return nil
}

// TeardownUnit removes this member's own instance from the cluster as part of
// unit departure. The teardown flag is raised for the duration so concurrent
// relation-broken handling and reconcile passes stand down.
func TeardownUnit() error {
	setup()
	atomic.StoreInt64(&tearingDownState, 1)
	defer atomic.StoreInt64(&tearingDownState, 0)

	if err := reconciler.TeardownUnit(); err != nil {
		return err
	}
	cluster.FlushStatusCache()
	return nil
}

// ForceQuorumFromInstance restores quorum using the local instance as the
// authoritative survivor. Reserved for quorum loss recovery.
func ForceQuorumFromInstance() error {
	setup()
	if err := operator.ForceQuorumFromInstance(); err != nil {
		return err
	}
	base.AuditOperation("force-quorum", config.Config.UnitLabel, config.Config.ClusterName, "quorum forced from "+config.Config.UnitAddress)
	cluster.FlushStatusCache()
	return nil
}

// SetClusterPrimary moves the local cluster's primary role to the given address
func SetClusterPrimary(address string) error {
	setup()
	if err := operator.SetClusterPrimary(address); err != nil {
		return err
	}
	base.AuditOperation("set-cluster-primary", config.Config.UnitLabel, config.Config.ClusterName, "primary moved to "+address)
	cluster.FlushStatusCache()
	return nil
}

// FenceWrites blocks writes on the primary cluster
func FenceWrites() error {
	setup()
	if err := operator.FenceWrites(); err != nil {
		return err
	}
	base.AuditOperation("fence-writes", config.Config.UnitLabel, config.Config.ClusterName, "writes fenced")
	return nil
}

// UnfenceWrites restores writes on a fenced cluster
func UnfenceWrites() error {
	setup()
	if err := operator.UnfenceWrites(); err != nil {
		return err
	}
	base.AuditOperation("unfence-writes", config.Config.UnitLabel, config.Config.ClusterName, "writes unfenced")
	return nil
}

// SubmitPrimaryToKVStore publishes the cluster set's writable endpoint to the
// kv stores on demand, returning the submitted pair
func SubmitPrimaryToKVStore() (*dtstruct.KVPair, error) {
	setup()
	setStatus := operator.GetClusterSetStatusCached()
	if setStatus == nil || setStatus.GlobalPrimary == "" || setStatus.DomainName == "" {
		return nil, log.Errorf("cluster set status unavailable")
	}
	pair := kv.ClusterPrimaryKVPair(setStatus.DomainName, setStatus.GlobalPrimary)
	if err := kv.PutValue(pair.Key, pair.Value); err != nil {
		return nil, err
	}
	return pair, nil
}

// ClusterSetPrimaryEndpoint reads back the writable endpoint last published for
// this member's own cluster set domain
func ClusterSetPrimaryEndpoint() (endpoint string, found bool, err error) {
	return kv.GetValue(kv.ClusterPrimaryKVKey(config.Config.ClusterSetDomainName))
}

// ContinuousReconcile starts the infinite reconcile process: election keepalive
// on a short tick, and on each reconcile tick one queued trigger or one
// topology convergence action. Blocks forever.
func ContinuousReconcile() {
	setup()
	log.Infof("continuous reconcile: setting up")

	if err := triggerQueue.Reload(); err != nil {
		log.Erroref(err)
	}
	go kv.InitKVStores()
	go ometrics.OperationCollection.StartAutoExpiration()
	go acceptSignals()

	electionTick := time.Tick(time.Second)
	reconcileTick := time.Tick(time.Duration(config.Config.ReconcileIntervalSeconds) * time.Second)

	log.Infof("continuous reconcile: starting")
	for {
		select {
		case <-electionTick:
			go func() {
				elected, err := process.AttemptElection()
				if err != nil {
					log.Erroref(err)
				}
				wasLeader := IsLeader()
				if elected {
					atomic.StoreInt64(&leaderState, 1)
					leaderGauge.Update(1)
				} else {
					atomic.StoreInt64(&leaderState, 0)
					leaderGauge.Update(0)
				}
				if elected != wasLeader {
					log.Infof("leadership changed: leader=%v", elected)
				}
			}()
		case <-reconcileTick:
			go func() {
				// a relation broken pass can outlive many ticks; never overlap
				if !atomic.CompareAndSwapInt64(&reconcileRunning, 0, 1) {
					return
				}
				defer atomic.StoreInt64(&reconcileRunning, 0)
				reconcilePass()
			}()
		}
	}
}

// reconcilePass performs at most one state changing action: a queued trigger
// takes precedence over topology convergence. The primary endpoint is
// distributed to the kv stores on every leader pass.
func reconcilePass() {
	if isTearingDown() {
		return
	}
	reconcileCounter.Inc(1)

	if t, ok := triggerQueue.Pop(); ok {
		if err := dispatch(t); err != nil {
			log.Erroref(err)
		}
	} else if _, err := reconciler.Converge(); err != nil {
		log.Erroref(err)
	}

	if IsLeader() {
		distributePrimaryEndpoint()
	}
}

func dispatch(t dtstruct.Trigger) error {
	log.Debugf("dispatching trigger %s", t.String())
	switch t.Kind {
	case dtstruct.TriggerRelationCreated:
		if t.Relation.IsOffer() {
			return offerHandler.HandleRelationCreated(t)
		}
		return consumerHandler.HandleRelationCreated(t)
	case dtstruct.TriggerRelationChanged:
		if t.Relation.IsOffer() {
			return offerHandler.HandleRelationChanged(t)
		}
		return consumerHandler.HandleRelationChanged(t)
	case dtstruct.TriggerRelationBroken, dtstruct.TriggerRelationDeparted:
		return brokenHandler.HandleRelationBroken(t)
	}
	return log.Errorf("unknown trigger kind: %s", t.Kind)
}

// distributePrimaryEndpoint publishes the cluster set's writable endpoint so
// routers can follow failovers
func distributePrimaryEndpoint() {
	setStatus := operator.GetClusterSetStatusCached()
	if setStatus == nil || setStatus.GlobalPrimary == "" || setStatus.DomainName == "" {
		return
	}
	pair := kv.ClusterPrimaryKVPair(setStatus.DomainName, setStatus.GlobalPrimary)
	if err := kv.DistributePairs([]*dtstruct.KVPair{pair}); err != nil {
		log.Erroref(err)
	}
}

// acceptSignals registers for OS signals
func acceptSignals() {
	c := make(chan os.Signal, 1)

	signal.Notify(c, syscall.SIGHUP)
	signal.Notify(c, syscall.SIGTERM)
	for sig := range c {
		switch sig {
		case syscall.SIGHUP:
			log.Infof("Received SIGHUP. Reloading configuration")
			base.AuditOperation("reload-configuration", config.Config.UnitLabel, config.Config.ClusterName, "Triggered via SIGHUP")
			config.Reload()
		case syscall.SIGTERM:
			log.Infof("Received SIGTERM. Shutting down %s", constant.WhoAmI)
			atomic.StoreInt64(&tearingDownState, 1)
			ometrics.OperationCollection.StopAutoExpiration()
			os.Exit(0)
		}
	}
}
