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
package http

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/base"
	"gitee.com/opengauss/clusterset4db/go/core/cluster"
	"gitee.com/opengauss/clusterset4db/go/core/ha/process"
	"gitee.com/opengauss/clusterset4db/go/core/lock"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/core/logic"
	ometrics "gitee.com/opengauss/clusterset4db/go/core/metric"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"github.com/go-martini/martini"
	"github.com/martini-contrib/auth"
	"github.com/martini-contrib/render"
	"github.com/opentracing/opentracing-go"
)

const auditPageSize = 20

var registerApiList []string

// RegisterAPIRequest register api to martini
func RegisterAPIRequest(method string, m *martini.ClassicMartini, path string, handler martini.Handler) {
	fullPath := fmt.Sprintf("/api/%s", path)

	availableApi := true
	switch method {
	case http.MethodGet:
		m.Get(fullPath, handler)
	case http.MethodPut:
		m.Put(fullPath, handler)
	case http.MethodDelete:
		m.Delete(fullPath, handler)
	case http.MethodPatch:
		m.Patch(fullPath, handler)
	default:
		log.Errorf("method:%s not be supported now, %s", method, fullPath)
		availableApi = false
	}
	if availableApi {
		registerApiList = append(registerApiList, fullPath+","+method)
	}
}

// RegisterRequests makes for the de-facto list of known API calls
func RegisterRequests(m *martini.ClassicMartini) {

	// show all api registered
	RegisterAPIRequest(http.MethodGet, m, "manage/list", ListAPI)

	// status reporting
	RegisterAPIRequest(http.MethodGet, m, "health", Health)
	RegisterAPIRequest(http.MethodGet, m, "leader-check", LeaderCheck)
	RegisterAPIRequest(http.MethodGet, m, "leader-check/:errorStatusCode", LeaderCheck)
	RegisterAPIRequest(http.MethodGet, m, "cluster-status", ClusterStatus)
	RegisterAPIRequest(http.MethodGet, m, "cluster-set-status", ClusterSetStatus)
	RegisterAPIRequest(http.MethodGet, m, "audit", Audit)
	RegisterAPIRequest(http.MethodGet, m, "audit/:page", Audit)
	RegisterAPIRequest(http.MethodGet, m, "operation-metric-aggregated/:seconds", OperationMetricsAggregated)
	RegisterAPIRequest(http.MethodGet, m, "lock-holders/:task", LockHolders)

	// relation triggers
	RegisterAPIRequest(http.MethodPatch, m, "trigger/:triggerKind/:relationKind/:relationId", SubmitTrigger)
	RegisterAPIRequest(http.MethodPatch, m, "create-replication/:relationId", CreateReplication)

	// cluster set operations
	RegisterAPIRequest(http.MethodPatch, m, "promote-cluster/:clusterName", PromoteCluster)
	RegisterAPIRequest(http.MethodPatch, m, "force-promote-cluster/:clusterName", ForcePromoteCluster)
	RegisterAPIRequest(http.MethodPatch, m, "rejoin-cluster-set/:clusterName", RejoinClusterSet)
	RegisterAPIRequest(http.MethodPatch, m, "fence-writes", FenceWrites)
	RegisterAPIRequest(http.MethodPatch, m, "unfence-writes", UnfenceWrites)
	RegisterAPIRequest(http.MethodPatch, m, "set-cluster-primary/:address", SetClusterPrimary)
	RegisterAPIRequest(http.MethodPatch, m, "force-quorum", ForceQuorum)
	RegisterAPIRequest(http.MethodPatch, m, "teardown-unit", TeardownUnit)

	// key-value
	RegisterAPIRequest(http.MethodGet, m, "cluster-set-primary-endpoint", ClusterSetPrimaryEndpoint)
	RegisterAPIRequest(http.MethodPatch, m, "submit-primary-to-kv-store", SubmitPrimaryToKVStore)

	// management
	RegisterAPIRequest(http.MethodPatch, m, "flush-status-cache", FlushStatusCache)
	RegisterAPIRequest(http.MethodPatch, m, "reelect", Reelect)

	// Configurable status check endpoint
	if config.Config.StatusEndpoint == constant.DefaultStatusAPIEndpoint {
		RegisterAPIRequest(http.MethodGet, m, "status", StatusCheck)
	} else {
		m.Get(config.Config.StatusEndpoint, StatusCheck)
	}
}

// Show all api registered
func ListAPI(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	sort.Strings(registerApiList)
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "", registerApiList))
}

// Health responds with the elected node and whether this process is it
func Health(params martini.Params, r render.Render, req *http.Request) {
	node, isElected, err := process.ElectedNode()
	if err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, fmt.Sprintf("Application node is unhealthy %+v", err), node))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, fmt.Sprintf("Application node is healthy, elected: %v", isElected), node))
}

// StatusCheck runs a self test
func StatusCheck(params martini.Params, r render.Render, req *http.Request) {
	node, _, err := process.ElectedNode()
	if err != nil {
		r.JSON(http.StatusInternalServerError, dtstruct.NewApiResponse(dtstruct.ERROR, fmt.Sprintf("Application node is unhealthy %+v", err), node))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "Application node is healthy", node))
}

// LeaderCheck answers with 200 when this process holds leadership, an
// (optionally overridden) error status otherwise. Suited for use by proxies.
func LeaderCheck(params martini.Params, r render.Render, req *http.Request) {
	respondStatus, err := strconv.Atoi(params["errorStatusCode"])
	if err != nil || respondStatus < 0 {
		respondStatus = http.StatusNotFound
	}

	if logic.IsLeader() {
		r.JSON(http.StatusOK, "OK")
	} else {
		r.JSON(respondStatus, "Not leader")
	}
}

// ClusterStatus reports the local group replication cluster topology
func ClusterStatus(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	status := logic.ClusterStatus()
	if status == nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, "cluster status unavailable", nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "", status))
}

// ClusterSetStatus reports the whole cluster set
func ClusterSetStatus(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	status := logic.ClusterSetStatus()
	if status == nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, "cluster set status unavailable", nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "", status))
}

// Audit shows a paginated list of audit entries
func Audit(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	page, err := strconv.Atoi(params["page"])
	if err != nil || page < 0 {
		page = 0
	}
	audits, err := base.ReadRecentAudit(page, auditPageSize)
	if err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "", audits))
}

// OperationMetricsAggregated returns aggregated engine operation latencies over
// the given window
func OperationMetricsAggregated(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	seconds, err := strconv.Atoi(params["seconds"])
	if err != nil || seconds <= 0 {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, fmt.Sprintf("invalid seconds: %s", params["seconds"]), nil))
		return
	}
	aggregated := ometrics.AggregatedSince(ometrics.OperationCollection, time.Now().Add(-time.Duration(seconds)*time.Second))
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "", aggregated))
}

// LockHolders lists current holders of the named task lock, winner first
func LockHolders(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	holders, err := lock.Holders(params["task"])
	if err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "", holders))
}

// SubmitTrigger enqueues a relation lifecycle trigger for the reconcile loop
func SubmitTrigger(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	relationID, err := strconv.ParseInt(params["relationId"], 10, 64)
	if err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, fmt.Sprintf("invalid relation id: %s", params["relationId"]), nil))
		return
	}
	if err := logic.SubmitTrigger(params["triggerKind"], params["relationKind"], relationID); err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, fmt.Sprintf("trigger submitted: %s %s:%d", params["triggerKind"], params["relationKind"], relationID), nil))
}

// CreateReplication runs the offer side replication setup action
func CreateReplication(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	span := opentracing.StartSpan("CreateReplication")
	defer span.Finish()

	if !base.AuthCheck(r, req, user) {
		return
	}
	relationID, err := strconv.ParseInt(params["relationId"], 10, 64)
	if err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, fmt.Sprintf("invalid relation id: %s", params["relationId"]), nil))
		return
	}
	if err := logic.CreateReplication(relationID); err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, fmt.Sprintf("replication created for relation %d", relationID), nil))
}

// PromoteCluster makes the named cluster the set primary
func PromoteCluster(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	promoteCluster(params, r, req, user, false)
}

// ForcePromoteCluster promotes through the disaster recovery path, for when the
// current primary cluster is unreachable
func ForcePromoteCluster(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	promoteCluster(params, r, req, user, true)
}

func promoteCluster(params martini.Params, r render.Render, req *http.Request, user auth.User, force bool) {
	span := opentracing.StartSpan("PromoteCluster")
	defer span.Finish()

	if !base.AuthCheck(r, req, user) {
		return
	}
	if err := logic.PromoteClusterToPrimary(params["clusterName"], force); err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, fmt.Sprintf("cluster promoted: %s", params["clusterName"]), nil))
}

// RejoinClusterSet rejoins the named invalidated cluster into the set
func RejoinClusterSet(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	if err := logic.RejoinClusterSet(params["clusterName"]); err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, fmt.Sprintf("cluster rejoined: %s", params["clusterName"]), nil))
}

// SetClusterPrimary moves the local cluster's primary role to the given address
func SetClusterPrimary(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	if err := logic.SetClusterPrimary(params["address"]); err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, fmt.Sprintf("cluster primary set: %s", params["address"]), nil))
}

// ForceQuorum restores quorum using the local instance as the authoritative
// survivor. Reserved for quorum loss recovery.
func ForceQuorum(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	if err := logic.ForceQuorumFromInstance(); err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "quorum forced", nil))
}

// TeardownUnit removes this member's own instance from the cluster on unit
// departure, dissolving the cluster when it is the last online member
func TeardownUnit(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	if err := logic.TeardownUnit(); err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "unit torn down", nil))
}

// ClusterSetPrimaryEndpoint reads the writable endpoint last published to the
// key-value stores for this member's cluster set domain
func ClusterSetPrimaryEndpoint(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	endpoint, found, err := logic.ClusterSetPrimaryEndpoint()
	if err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	if !found {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, "no primary endpoint published", nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "", endpoint))
}

// SubmitPrimaryToKVStore publishes the cluster set's writable endpoint to the
// key-value stores on demand
func SubmitPrimaryToKVStore(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	pair, err := logic.SubmitPrimaryToKVStore()
	if err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "", pair))
}

// FenceWrites blocks writes on the primary cluster
func FenceWrites(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	if err := logic.FenceWrites(); err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "writes fenced", nil))
}

// UnfenceWrites restores writes on a fenced cluster
func UnfenceWrites(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	if err := logic.UnfenceWrites(); err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "writes unfenced", nil))
}

// FlushStatusCache discards cached engine topology snapshots
func FlushStatusCache(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	cluster.FlushStatusCache()
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "status cache flushed", nil))
}

// Reelect demotes the current leader and clears the way for re-elections
func Reelect(params martini.Params, r render.Render, req *http.Request, user auth.User) {
	if !base.AuthCheck(r, req, user) {
		return
	}
	if err := process.Reelect(); err != nil {
		base.Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, err.Error(), nil))
		return
	}
	base.Respond(r, dtstruct.NewApiResponse(dtstruct.OK, "re-election initiated", nil))
}
