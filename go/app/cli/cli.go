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
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/core/base"
	"gitee.com/opengauss/clusterset4db/go/core/cluster"
	"gitee.com/opengauss/clusterset4db/go/core/ha/process"
	"gitee.com/opengauss/clusterset4db/go/core/kv"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/core/logic"
	"gitee.com/opengauss/clusterset4db/go/core/peerstate"
	"gitee.com/opengauss/clusterset4db/go/core/secret"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"gitee.com/opengauss/clusterset4db/go/util"
	"github.com/howeyc/gopass"
)

// AppPrompt is printed when the binary is run with no command at all
const AppPrompt = `clusterset4db [-c command] [cli|http]
See full list of commands via 'clusterset4db -c help'`

var commandMap map[string]dtstruct.CommandDesc

func init() {
	commandMap = make(map[string]dtstruct.CommandDesc)
}

// Cli initiates a command line interface, executing requested command.
func Cli(command string, clusterName string, address string, relationID int64, triggerKind string, relationKind string, account string, force bool) {

	if command != "help" {
		kv.InitKVStores()
	}

	cliParam := &dtstruct.CliParam{
		Command:      command,
		ClusterName:  clusterName,
		Address:      address,
		RelationID:   relationID,
		TriggerKind:  triggerKind,
		RelationKind: relationKind,
		Account:      account,
		Force:        force,
	}
	CliCmd(commandMap, cliParam)

	switch command {
	case "help":
		fmt.Fprintf(os.Stderr, util.CommandUsage(commandMap))
	default:
		if cmd, ok := commandMap[command]; ok {
			cmd.Func(cliParam)
		} else {
			log.Fatalf("Unknown command: \"%s\". %s", command, util.CommandUsage(commandMap))
		}
	}
}

// register cli command
func CliCmd(commandMap map[string]dtstruct.CommandDesc, cliParam *dtstruct.CliParam) {
	statusCmd()
	clusterSetCmd()
	triggerCmd()
	secretCmd()
	keyValueCmd()
	managementCmd()
}

// statusCmd
func statusCmd() {
	util.RegisterCliCommand(commandMap, "cluster-status", "status", `show the local group replication cluster topology`,
		func(cliParam *dtstruct.CliParam) {
			status := logic.ClusterStatus()
			if status == nil {
				log.Fatalf("cluster status unavailable")
			}
			printJSON(status)
		},
	)
	util.RegisterCliCommand(commandMap, "cluster-set-status", "status", `show the whole cluster set`,
		func(cliParam *dtstruct.CliParam) {
			status := logic.ClusterSetStatus()
			if status == nil {
				log.Fatalf("cluster set status unavailable")
			}
			printJSON(status)
		},
	)
	util.RegisterCliCommand(commandMap, "elected-node", "status", `show the currently elected node`,
		func(cliParam *dtstruct.CliParam) {
			node, isElected, err := process.ElectedNode()
			if err != nil {
				log.Fatale(err)
			}
			fmt.Println(fmt.Sprintf("%s (this node: %v)", node.Label, isElected))
		},
	)
	util.RegisterCliCommand(commandMap, "audit-recent", "status", `show recent audit entries`,
		func(cliParam *dtstruct.CliParam) {
			audits, err := base.ReadRecentAudit(0, 20)
			if err != nil {
				log.Fatale(err)
			}
			for _, entry := range audits {
				fmt.Println(entry)
			}
		},
	)
}

// clusterSetCmd
func clusterSetCmd() {
	util.RegisterCliCommand(commandMap, "promote-cluster", "cluster-set", `make the given cluster the set primary; --force uses the disaster recovery path`,
		func(cliParam *dtstruct.CliParam) {
			if cliParam.ClusterName == "" {
				log.Fatalf("promote-cluster requires --cluster")
			}
			if err := logic.PromoteClusterToPrimary(cliParam.ClusterName, cliParam.Force); err != nil {
				log.Fatale(err)
			}
			fmt.Println(cliParam.ClusterName)
		},
	)
	util.RegisterCliCommand(commandMap, "rejoin-cluster-set", "cluster-set", `rejoin the given invalidated cluster into the set`,
		func(cliParam *dtstruct.CliParam) {
			if cliParam.ClusterName == "" {
				log.Fatalf("rejoin-cluster-set requires --cluster")
			}
			if err := logic.RejoinClusterSet(cliParam.ClusterName); err != nil {
				log.Fatale(err)
			}
			fmt.Println(cliParam.ClusterName)
		},
	)
	util.RegisterCliCommand(commandMap, "fence-writes", "cluster-set", `block writes on the primary cluster`,
		func(cliParam *dtstruct.CliParam) {
			if err := logic.FenceWrites(); err != nil {
				log.Fatale(err)
			}
			fmt.Println("writes fenced")
		},
	)
	util.RegisterCliCommand(commandMap, "unfence-writes", "cluster-set", `restore writes on a fenced cluster`,
		func(cliParam *dtstruct.CliParam) {
			if err := logic.UnfenceWrites(); err != nil {
				log.Fatale(err)
			}
			fmt.Println("writes unfenced")
		},
	)
	util.RegisterCliCommand(commandMap, "set-cluster-primary", "cluster-set", `move the local cluster's primary role to the given address`,
		func(cliParam *dtstruct.CliParam) {
			if cliParam.Address == "" {
				log.Fatalf("set-cluster-primary requires --address")
			}
			if err := logic.SetClusterPrimary(cliParam.Address); err != nil {
				log.Fatale(err)
			}
			fmt.Println(cliParam.Address)
		},
	)
	util.RegisterCliCommand(commandMap, "force-quorum", "cluster-set", `restore quorum using the local instance; reserved for quorum loss recovery`,
		func(cliParam *dtstruct.CliParam) {
			if err := logic.ForceQuorumFromInstance(); err != nil {
				log.Fatale(err)
			}
			fmt.Println("quorum forced")
		},
	)
	util.RegisterCliCommand(commandMap, "teardown-unit", "cluster-set", `remove this member's own instance from the cluster on unit departure`,
		func(cliParam *dtstruct.CliParam) {
			if err := logic.TeardownUnit(); err != nil {
				log.Fatale(err)
			}
			fmt.Println("unit torn down")
		},
	)
	util.RegisterCliCommand(commandMap, "create-replication", "cluster-set", `run the offer side replication setup for the given relation`,
		func(cliParam *dtstruct.CliParam) {
			if cliParam.RelationID == 0 {
				log.Fatalf("create-replication requires --relation-id")
			}
			if err := logic.CreateReplication(cliParam.RelationID); err != nil {
				log.Fatale(err)
			}
			fmt.Println(cliParam.RelationID)
		},
	)
}

// triggerCmd
func triggerCmd() {
	util.RegisterCliCommand(commandMap, "submit-trigger", "trigger", `enqueue a relation lifecycle trigger for the reconcile loop`,
		func(cliParam *dtstruct.CliParam) {
			if cliParam.TriggerKind == "" || cliParam.RelationKind == "" || cliParam.RelationID == 0 {
				log.Fatalf("submit-trigger requires --trigger-kind, --relation-kind and --relation-id")
			}
			if err := logic.SubmitTrigger(cliParam.TriggerKind, cliParam.RelationKind, cliParam.RelationID); err != nil {
				log.Fatale(err)
			}
			fmt.Println(fmt.Sprintf("%s %s:%d", cliParam.TriggerKind, cliParam.RelationKind, cliParam.RelationID))
		},
	)
}

// secretCmd
func secretCmd() {
	util.RegisterCliCommand(commandMap, "get-password", "secret", `show the stored password of the given system account`,
		func(cliParam *dtstruct.CliParam) {
			account := cliParam.Account
			if account == "" {
				account = constant.AccountRoot
			}
			password, err := secret.GetAccount(groupSecretID(), account)
			if err != nil {
				log.Fatale(err)
			}
			fmt.Println(password)
		},
	)
	util.RegisterCliCommand(commandMap, "set-password", "secret", `prompt for a new password of the given system account and apply it to the database`,
		func(cliParam *dtstruct.CliParam) {
			account := cliParam.Account
			if account == "" {
				account = constant.AccountRoot
			}
			fmt.Printf("new password for %s: ", account)
			password, err := gopass.GetPasswd()
			if err != nil {
				log.Fatale(err)
			}
			secretID := groupSecretID()
			if err = secret.UpdateAccount(secretID, account, string(password)); err != nil {
				log.Fatale(err)
			}
			host := "%"
			if account == constant.AccountRoot {
				host = "localhost"
			}
			if err = cluster.NewOperator().SetAccountPassword(account, host, string(password)); err != nil {
				log.Fatale(err)
			}
			fmt.Println(account)
		},
	)
}

// keyValueCmd
func keyValueCmd() {
	util.RegisterCliCommand(commandMap, "kv-submit-primary-to-kv-store", "key-value", `submit the cluster set's writable endpoint to the key-value stores`,
		func(cliParam *dtstruct.CliParam) {
			setStatus := logic.ClusterSetStatus()
			if setStatus == nil || setStatus.GlobalPrimary == "" {
				log.Fatalf("cluster set status unavailable")
			}
			kvPair := kv.ClusterPrimaryKVPair(setStatus.DomainName, setStatus.GlobalPrimary)
			if err := kv.PutKVPairs([]*dtstruct.KVPair{kvPair}); err != nil {
				log.Fatale(err)
			}
			fmt.Println(fmt.Sprintf("%s:%s", kvPair.Key, kvPair.Value))
		},
	)
	util.RegisterCliCommand(commandMap, "which-cluster-set-primary", "key-value", `show the writable endpoint last published for this member's cluster set domain`,
		func(cliParam *dtstruct.CliParam) {
			endpoint, found, err := logic.ClusterSetPrimaryEndpoint()
			if err != nil {
				log.Fatale(err)
			}
			if !found {
				log.Fatalf("no primary endpoint published")
			}
			fmt.Println(endpoint)
		},
	)
}

// managementCmd
func managementCmd() {
	util.RegisterCliCommand(commandMap, "reelect", "management", `demote the current leader and clear the way for re-elections`,
		func(cliParam *dtstruct.CliParam) {
			if err := process.Reelect(); err != nil {
				log.Fatale(err)
			}
			fmt.Println("re-election initiated")
		},
	)
	util.RegisterCliCommand(commandMap, "grab-election", "management", `forcibly grab leadership for this node`,
		func(cliParam *dtstruct.CliParam) {
			if err := process.GrabElection(); err != nil {
				log.Fatale(err)
			}
			fmt.Println("election grabbed")
		},
	)
	util.RegisterCliCommand(commandMap, "flush-status-cache", "management", `discard cached engine topology snapshots`,
		func(cliParam *dtstruct.CliParam) {
			cluster.FlushStatusCache()
			fmt.Println("status cache flushed")
		},
	)
}

func groupSecretID() string {
	secretID, found, err := peerstate.GetGroupValue(constant.GroupKeySecretID)
	if err != nil {
		log.Fatale(err)
	}
	if !found {
		log.Fatalf("no group secret has been created yet")
	}
	return secretID
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatale(err)
	}
	fmt.Println(string(out))
}
