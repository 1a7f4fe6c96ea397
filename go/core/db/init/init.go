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
package init

import (
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/db"
	"gitee.com/opengauss/clusterset4db/go/core/log"
)

// schemaBase holds the coordination tables shared by all members. Statements are
// written in mysql flavor; the sqlite backend rewrites them through its dialect pass.
var schemaBase = []string{
	`
		create table csd_group_state (
			state_key varchar(128) not null,
			state_value text not null,
			last_updated_timestamp timestamp not null default current_timestamp,
			primary key (state_key)
		)
	`,
	`
		create table csd_member_state (
			member_label varchar(128) not null,
			state_key varchar(128) not null,
			state_value text not null,
			last_updated_timestamp timestamp not null default current_timestamp,
			primary key (member_label, state_key)
		)
	`,
	`
		create table csd_relation_state (
			relation_id bigint not null,
			side varchar(16) not null,
			state_key varchar(128) not null,
			state_value text not null,
			last_updated_timestamp timestamp not null default current_timestamp,
			primary key (relation_id, side, state_key)
		)
	`,
	`
		create table csd_task_lock (
			lock_id integer primary key auto_increment,
			task varchar(128) not null,
			holder varchar(128) not null,
			begin_timestamp timestamp not null default current_timestamp
		)
	`,
	`
		create table csd_node_active (
			anchor tinyint not null,
			hostname varchar(128) not null,
			token varchar(128) not null,
			first_seen_active_timestamp timestamp not null default current_timestamp,
			last_seen_active_timestamp timestamp not null default current_timestamp,
			primary key (anchor)
		)
	`,
	`
		create table csd_secret (
			secret_id varchar(128) not null,
			account varchar(64) not null,
			secret_value varchar(256) not null,
			primary key (secret_id, account)
		)
	`,
	`
		create table csd_secret_grant (
			secret_id varchar(128) not null,
			relation_id bigint not null,
			primary key (secret_id, relation_id)
		)
	`,
	`
		create table csd_kv_store (
			store_key varchar(255) not null,
			store_value text not null,
			last_updated_timestamp timestamp not null default current_timestamp,
			primary key (store_key)
		)
	`,
	`
		create table csd_event_queue (
			event_id integer primary key auto_increment,
			relation_kind varchar(64) not null,
			relation_id bigint not null,
			trigger_kind varchar(64) not null,
			attempt int not null default 0,
			in_queue tinyint not null default 1,
			added_timestamp timestamp not null default current_timestamp
		)
	`,
	`
		create table csd_audit (
			audit_id integer primary key auto_increment,
			audit_timestamp timestamp not null default current_timestamp,
			audit_type varchar(128) not null,
			unit_label varchar(128) not null,
			cluster_name varchar(128) not null,
			message text not null
		)
	`,
}

// SchemaInit deploys the coordination schema on the backend database
func SchemaInit() {
	db.GetBackendDBHandler(config.Config.BackendDB).SchemaInit(schemaBase)
	log.Infof("backend schema initialized on %s", config.Config.BackendDB)
}
