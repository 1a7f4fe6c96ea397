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
	"strings"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
)

// InstanceStatus is one member's entry in a group replication cluster topology snapshot
type InstanceStatus struct {
	Address     string `json:"address"`
	MemberRole  string `json:"memberRole"`
	MemberState string `json:"status"`
	Mode        string `json:"mode"`
}

// IsOnline tell if this instance is an online group member
func (s *InstanceStatus) IsOnline() bool {
	return strings.EqualFold(s.MemberState, constant.InstanceStatusOnline)
}

// IsReadOnlySecondary tell if this instance can serve as a low-impact clone donor
func (s *InstanceStatus) IsReadOnlySecondary() bool {
	return s.IsOnline() && strings.EqualFold(s.Mode, constant.InstanceModeReadOnly)
}

// ClusterStatus is a snapshot of one group replication cluster, as reported by the engine.
// A nil *ClusterStatus means the engine could not be queried; callers treat that as
// "unknown", a legitimate transient state.
type ClusterStatus struct {
	ClusterName string                     `json:"clusterName"`
	ClusterRole string                     `json:"clusterRole"`
	Primary     string                     `json:"primary"`
	Topology    map[string]*InstanceStatus `json:"topology"`
	Status      string                     `json:"status"`
}

// OnlineCount counts online members
func (s *ClusterStatus) OnlineCount() (count int) {
	for _, instance := range s.Topology {
		if instance.IsOnline() {
			count++
		}
	}
	return count
}

// IsReplica tell if this cluster is a cluster set replica
func (s *ClusterStatus) IsReplica() bool {
	return strings.EqualFold(s.ClusterRole, constant.ClusterRoleReplica)
}

// MemberRoleOf return the reported role of the instance carrying given label,
// or unknown when the label is not part of the topology
func (s *ClusterStatus) MemberRoleOf(label string) string {
	if instance, ok := s.Topology[label]; ok && instance.MemberRole != "" {
		return strings.ToLower(instance.MemberRole)
	}
	return constant.MemberRoleUnknown
}

// ClusterSetMember is one cluster's entry in a cluster set status snapshot
type ClusterSetMember struct {
	ClusterRole  string `json:"clusterRole"`
	GlobalStatus string `json:"globalStatus"`
	Primary      string `json:"primary"`
}

// ClusterSetStatus is a snapshot of a whole cluster set
type ClusterSetStatus struct {
	DomainName     string                       `json:"domainName"`
	PrimaryCluster string                       `json:"primaryCluster"`
	GlobalPrimary  string                       `json:"globalPrimaryInstance"`
	Clusters       map[string]*ClusterSetMember `json:"clusters"`
}

// GlobalStatusOf return the reported global status of the named replica cluster,
// or unknown when the cluster is not part of the set
func (s *ClusterSetStatus) GlobalStatusOf(clusterName string) string {
	if member, ok := s.Clusters[clusterName]; ok && member.GlobalStatus != "" {
		return strings.ToLower(member.GlobalStatus)
	}
	return constant.GlobalStatusUnknown
}

// IsSettledGlobalStatus tell if a replica cluster's global status is settled.
// ok and invalidated are settled; anything else is in flux.
func IsSettledGlobalStatus(globalStatus string) bool {
	switch strings.ToLower(globalStatus) {
	case constant.GlobalStatusOK, constant.GlobalStatusInvalidated:
		return true
	}
	return false
}
