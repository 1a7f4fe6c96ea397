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

package main

import (
	"flag"
	"fmt"
	"os"

	"gitee.com/opengauss/clusterset4db/go/app/cli"
	"gitee.com/opengauss/clusterset4db/go/app/http"
	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/base"
	initdb "gitee.com/opengauss/clusterset4db/go/core/db/init"
	"gitee.com/opengauss/clusterset4db/go/core/ha/process"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"gitee.com/opengauss/clusterset4db/go/util"
	"github.com/uber/jaeger-client-go"
	jconfig "github.com/uber/jaeger-client-go/config"
)

var AppVersion, GitCommit string

// main is the application's entry point. It will either spawn a CLI or HTTP interface.
func main() {
	configFile := flag.String("config", "", "config file name")
	command := flag.String("c", "", "command, required. See full list of commands via 'clusterset4db -c help'")
	clusterName := flag.String("cluster", "", "cluster name (applies for cluster set commands)")
	address := flag.String("address", "", "instance address host:port (applies for set-cluster-primary)")
	relationID := flag.Int64("relation-id", 0, "relation id (applies for relation commands)")
	triggerKind := flag.String("trigger-kind", "", "trigger kind: relation-created|relation-changed|relation-broken|relation-departed")
	relationKind := flag.String("relation-kind", "", "relation kind: replication-offer|replication")
	account := flag.String("account", "", "system account (applies for secret commands)")
	force := flag.Bool("force", false, "force the operation (applies for promote-cluster)")
	quiet := flag.Bool("quiet", false, "quiet")
	warning := flag.Bool("warn", false, "warn")
	verbose := flag.Bool("verbose", false, "verbose")
	debug := flag.Bool("debug", false, "debug mode (very verbose)")
	stack := flag.Bool("stack", false, "add stack trace upon error")
	dtstruct.RuntimeCLIFlags.GrabElection = flag.Bool("grab-election", false, "Grab leadership (only applies to continuous mode)")
	dtstruct.RuntimeCLIFlags.Version = flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// No command, no argument: just prompt
	if len(flag.Args()) == 0 && *command == "" {
		fmt.Println(cli.AppPrompt)
		return
	}

	if *verbose {
		log.SetLevel(log.INFO)
	}
	if *debug {
		log.SetLevel(log.DEBUG)
	}
	if *stack {
		log.SetPrintStackTrace(*stack)
	}
	if *dtstruct.RuntimeCLIFlags.Version {
		fmt.Println(AppVersion)
		fmt.Println(GitCommit)
		return
	}

	startText := "starting " + constant.WhoAmI
	if AppVersion != "" {
		startText += ", version: " + AppVersion
	}
	if GitCommit != "" {
		startText += ", git commit: " + GitCommit
	}
	log.Info(startText)

	if len(*configFile) > 0 {
		config.ForceRead(*configFile)
	}
	if config.Config.Debug {
		log.SetLevel(log.DEBUG)
	}
	if *warning {
		log.SetLevel(log.WARNING)
	}
	if *quiet {
		// Override!!
		log.SetLevel(log.ERROR)
	}
	if config.Config.EnableSyslog {
		log.EnableSyslogWriter(constant.WhoAmI)
		base.EnableSyslog()
	}
	dtstruct.ProcessToken.Hash = util.RandomHash()

	if config.Config.TracingEnabled {
		agentAddr := config.Config.JaegerAgentAddr
		if agentAddr == "" {
			agentAddr = "0.0.0.0:6831"
		}
		jcfg := jconfig.Configuration{Sampler: &jconfig.SamplerConfig{Type: jaeger.SamplerTypeConst, Param: 1}, Reporter: &jconfig.ReporterConfig{LogSpans: true, LocalAgentHostPort: agentAddr}}
		closer, err := jcfg.InitGlobalTracer(constant.WhoAmI)
		if err != nil {
			log.Fatale(err)
		}
		defer closer.Close()
	}

	if *command != "help" {
		if len(*configFile) == 0 {
			log.Fatalf("should specified config file using option --config")
		}
		initdb.SchemaInit()
		config.MarkConfigurationLoaded()
	}

	switch {
	case len(flag.Args()) == 0 || flag.Arg(0) == "cli":
		cli.Cli(*command, *clusterName, *address, *relationID, *triggerKind, *relationKind, *account, *force)
	case flag.Arg(0) == "http":
		if *dtstruct.RuntimeCLIFlags.GrabElection {
			process.GrabElection()
		}
		http.Http(true)
	default:
		fmt.Fprintln(os.Stderr, `Usage:
  clusterset4db --options... [cli|http]
See complete list of commands:
  clusterset4db -c help`)
		os.Exit(1)
	}
}
