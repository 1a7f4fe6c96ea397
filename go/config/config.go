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
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/core/log"
)

// Configuration makes for the run-time configuration of this app. Config is read once from file
// (or files, the last one wins per key) and is not expected to change during a process lifetime,
// apart from an explicit Reload on SIGHUP.
type Configuration struct {
	ListenAddress string // host:port the HTTP API listens on

	// backend database, the coordination medium between members
	BackendDB         string // "mysql" or "sqlite3"
	SQLite3DataFile   string // when BackendDB is sqlite3; ":memory:" allowed
	BackendDBHost     string
	BackendDBPort     int
	BackendDBUser     string
	BackendDBPassword string
	BackendDBName     string

	// identity of this member
	UnitLabel   string // stable label derived from the unit ordinal
	UnitAddress string // host:port of the local database server

	// managed cluster
	ClusterName          string // desired group replication cluster name
	ClusterSetDomainName string // desired cluster set domain name
	PlannedUnitCount     int    // number of units this deployment plans to run
	MaxGroupSize         int    // group replication hard member limit

	// engine access
	MySQLShellPath      string // mysqlsh binary
	MySQLUser           string // admin account used for engine operations
	MySQLPassword       string
	ShellTimeoutSeconds int

	// reconciliation
	ReconcileIntervalSeconds int
	DeferredEventMaxAttempt  int // bounded redelivery for deferred triggers; 0 means unbounded

	// HTTP API auth
	AuthenticationMethod string // "" or "basic"
	HTTPAuthUser         string
	HTTPAuthPassword     string
	UseSSL               bool
	SSLCertFile          string
	SSLPrivateKeyFile    string

	// KV stores the primary endpoint is distributed to
	KVClusterMasterPrefix   string
	ConsulAddress           string
	ConsulScheme            string
	ConsulACLToken          string
	ZkAddress               string
	ConsulKVStoreProvider   string // "consul" (default) or "consul-txn"

	// audit
	AuditLogFile     string
	AuditToBackendDB bool

	// observability
	EnableSyslog    bool
	TracingEnabled  bool
	JaegerAgentAddr string
	StatusEndpoint  string

	Debug bool
}

// Config is the global instance read from file on startup
var Config = newConfiguration()

var readFileNames []string
var configurationLoaded = make(chan bool)

func newConfiguration() *Configuration {
	return &Configuration{
		ListenAddress:            ":3000",
		BackendDB:                constant.DefaultBackendDB,
		SQLite3DataFile:          ":memory:",
		BackendDBPort:            3306,
		ClusterName:              "cluster",
		PlannedUnitCount:         1,
		MaxGroupSize:             9,
		MySQLShellPath:           "mysqlsh",
		MySQLUser:                constant.AccountClusterAdmin,
		ShellTimeoutSeconds:      300,
		ReconcileIntervalSeconds: 5,
		DeferredEventMaxAttempt:  0,
		ConsulScheme:             "http",
		KVClusterMasterPrefix:    "db/cluster-set/",
		AuditToBackendDB:         true,
		StatusEndpoint:           constant.DefaultStatusAPIEndpoint,
	}
}

// IsSQLite tell if backend db is sqlite3
func (c *Configuration) IsSQLite() bool {
	return c.BackendDB == constant.BackendDBSqlite
}

// IsMySQL tell if backend db is mysql
func (c *Configuration) IsMySQL() bool {
	return c.BackendDB == constant.BackendDBMysql
}

// postReadAdjustments validates and fixes up a configuration that was just read
func (c *Configuration) postReadAdjustments() error {
	if c.IsSQLite() && c.SQLite3DataFile == "" {
		return fmt.Errorf("SQLite3DataFile must be set when BackendDB is %s", constant.BackendDBSqlite)
	}
	if c.IsMySQL() && c.BackendDBHost == "" {
		return fmt.Errorf("BackendDBHost must be set when BackendDB is %s", constant.BackendDBMysql)
	}
	if !c.IsSQLite() && !c.IsMySQL() {
		return fmt.Errorf("unsupported BackendDB: %s", c.BackendDB)
	}
	if c.PlannedUnitCount < 1 {
		return fmt.Errorf("PlannedUnitCount must be at least 1, got %d", c.PlannedUnitCount)
	}
	if c.MaxGroupSize < 1 || c.MaxGroupSize > 9 {
		return fmt.Errorf("MaxGroupSize must be between 1 and 9, got %d", c.MaxGroupSize)
	}
	if c.AuthenticationMethod == "basic" && (c.HTTPAuthUser == "" || c.HTTPAuthPassword == "") {
		return fmt.Errorf("basic authentication requires HTTPAuthUser and HTTPAuthPassword")
	}
	// kv keys are built by plain concatenation; the prefix carries its own separator
	if c.KVClusterMasterPrefix != "" && !strings.HasSuffix(c.KVClusterMasterPrefix, "/") {
		c.KVClusterMasterPrefix += "/"
	}
	return nil
}

// read reads configuration from given file
func read(fileName string) (*Configuration, error) {
	if fileName == "" {
		return Config, fmt.Errorf("empty file name")
	}
	file, err := os.Open(fileName)
	if err != nil {
		return Config, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err = decoder.Decode(Config); err != nil {
		return Config, log.Errore(err)
	}
	if err = Config.postReadAdjustments(); err != nil {
		return Config, log.Errore(err)
	}
	log.Infof("read config: %s", fileName)
	return Config, nil
}

// Read reads configuration from all given files, in order of input.
// Each file can override previous ones. Non-existing files are skipped.
func Read(fileNames ...string) *Configuration {
	for _, fileName := range fileNames {
		if _, err := os.Stat(fileName); err == nil {
			if _, err := read(fileName); err != nil {
				log.Fatal("cannot read config file: %s, %+v", fileName, err)
			}
		}
	}
	readFileNames = fileNames
	return Config
}

// ForceRead reads configuration from given file name or bails out if it fails
func ForceRead(fileName string) *Configuration {
	_, err := read(fileName)
	if err != nil {
		log.Fatal("cannot read config file: %s, %+v", fileName, err)
	}
	readFileNames = []string{fileName}
	return Config
}

// Reload re-reads configuration from last used files
func Reload(extraFileNames ...string) *Configuration {
	for _, fileName := range readFileNames {
		if _, err := os.Stat(fileName); err == nil {
			_, _ = read(fileName)
		}
	}
	for _, fileName := range extraFileNames {
		_, _ = read(fileName)
	}
	return Config
}

// MarkConfigurationLoaded is called once configuration has first been loaded.
// Listeners on ConfigurationLoaded will get a notification
func MarkConfigurationLoaded() {
	go func() {
		for {
			configurationLoaded <- true
		}
	}()
}

// WaitForConfigurationToBeLoaded does just that. It will return after
// the configuration file has been read off disk.
func WaitForConfigurationToBeLoaded() {
	<-configurationLoaded
}
