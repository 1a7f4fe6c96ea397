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

// ShellRunner executes one engine admin command and returns its stdout. The engine
// (MySQL Shell / InnoDB Cluster admin API) is a black box behind this boundary;
// tests substitute a scripted implementation.
type ShellRunner interface {
	Run(command string) (output string, err error)
}

// SQLQuerier runs a plain SQL query against the local database server, outside the
// admin API. Used for cheap reads the shell would be overkill for (user data check,
// version read, account password updates).
type SQLQuerier interface {
	QueryValue(query string, args ...interface{}) (value string, err error)
	Exec(query string, args ...interface{}) error
}

// KVPair is a key/value tuple distributed to external KV stores
type KVPair struct {
	Key   string
	Value string
}

func NewKVPair(key string, value string) *KVPair {
	return &KVPair{Key: key, Value: value}
}

// KVStore is a backend the cluster set primary endpoint is distributed to
type KVStore interface {
	PutKeyValue(key string, value string) (err error)
	GetKeyValue(key string) (value string, found bool, err error)
	PutKVPairs(kvPairs []*KVPair) (err error)
	DistributePairs(kvPairs []*KVPair) (err error)
}
