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
package consul

import (
	"time"

	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	consulapi "github.com/hashicorp/consul/api"
	"github.com/patrickmn/go-cache"
)

// Consul key-value store. A nil client (no ConsulAddress configured) makes
// every operation a silent no-op.
type consulStore struct {
	client *consulapi.Client
	// lastWritten remembers the value last pushed per key, so repeated
	// distribution of an unchanged topology does not hammer consul
	lastWritten *cache.Cache
}

func NewConsulStore() dtstruct.KVStore {
	store := &consulStore{
		lastWritten: cache.New(10*time.Minute, time.Minute),
	}

	if config.Config.ConsulAddress != "" {
		consulConfig := consulapi.DefaultConfig()
		consulConfig.Address = config.Config.ConsulAddress
		if config.Config.ConsulScheme != "" {
			consulConfig.Scheme = config.Config.ConsulScheme
		}
		consulConfig.Token = config.Config.ConsulACLToken
		if client, err := consulapi.NewClient(consulConfig); err == nil {
			store.client = client
		} else {
			log.Erroref(err)
		}
	}
	return store
}

func (this *consulStore) PutKeyValue(key string, value string) (err error) {
	if this.client == nil {
		return nil
	}
	pair := &consulapi.KVPair{Key: key, Value: []byte(value)}
	if _, err = this.client.KV().Put(pair, nil); err == nil {
		this.lastWritten.SetDefault(key, value)
	}
	return err
}

func (this *consulStore) GetKeyValue(key string) (value string, found bool, err error) {
	if this.client == nil {
		return value, false, nil
	}
	pair, _, err := this.client.KV().Get(key, nil)
	if err != nil || pair == nil {
		return value, false, err
	}
	return string(pair.Value), true, nil
}

func (this *consulStore) PutKVPairs(kvPairs []*dtstruct.KVPair) (err error) {
	if this.client == nil {
		return nil
	}
	for _, pair := range kvPairs {
		if err := this.PutKeyValue(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return nil
}

func (this *consulStore) DistributePairs(kvPairs []*dtstruct.KVPair) (err error) {
	if this.client == nil {
		return nil
	}
	for _, pair := range kvPairs {
		if known, ok := this.lastWritten.Get(pair.Key); ok && known.(string) == pair.Value {
			continue
		}
		if err := this.PutKeyValue(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return nil
}
