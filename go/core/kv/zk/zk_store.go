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
package zk

import (
	"fmt"
	"strings"

	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	zklib "github.com/samuel/go-zookeeper/zk"
)

// ZooKeeper backed key-value store. Disabled (no-op) unless ZkAddress is configured.
type zkStore struct {
	zook *ZooKeeper
}

func normalizeKey(key string) (normalizedKey string) {
	normalizedKey = strings.TrimLeft(key, "/")
	normalizedKey = fmt.Sprintf("/%s", normalizedKey)
	return normalizedKey
}

func NewZkStore() dtstruct.KVStore {
	store := &zkStore{}

	if config.Config.ZkAddress != "" {
		zook := NewZooKeeper()
		zook.SetServers(strings.Split(config.Config.ZkAddress, ","))
		store.zook = zook
	}
	return store
}

func (this *zkStore) PutKeyValue(key string, value string) (err error) {
	if this.zook == nil {
		return nil
	}
	if err = this.zook.Set(normalizeKey(key), []byte(value)); err == zklib.ErrNoNode {
		err = this.zook.CreateRecursive(normalizeKey(key), []byte(value))
	}
	return err
}

func (this *zkStore) GetKeyValue(key string) (value string, found bool, err error) {
	if this.zook == nil {
		return value, false, nil
	}
	result, err := this.zook.Get(normalizeKey(key))
	if err != nil {
		return value, false, err
	}
	return string(result), true, nil
}

func (this *zkStore) PutKVPairs(kvPairs []*dtstruct.KVPair) (err error) {
	if this.zook == nil {
		return nil
	}
	for _, pair := range kvPairs {
		if err := this.PutKeyValue(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return nil
}

func (this *zkStore) DistributePairs(kvPairs []*dtstruct.KVPair) (err error) {
	return nil
}
