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
	"sync"
	"time"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"github.com/patrickmn/go-cache"
)

// Cache wraps go-cache with a name and hit accounting
type Cache struct {
	sync.Mutex
	Name string
	*cache.Cache
	access float64
	miss   float64
}

// NewCache create new cache with expiration and clean up interval
func NewCache(name string, expiration time.Duration, cleanupInterval time.Duration) *Cache {
	return &Cache{Name: constant.CacheNamePrefix + name, Cache: cache.New(expiration, cleanupInterval)}
}

// GetVal return value in cache, if absent get it from function `valFunc` and cache it
// with the cache's default expiration. Errors from valFunc are not cached.
func (c *Cache) GetVal(key string, valFunc func() (interface{}, error)) (val interface{}, err error) {
	c.Lock()
	defer c.Unlock()

	c.access++
	var ok bool
	if val, ok = c.Get(key); ok {
		return val, nil
	}
	c.miss++
	if val, err = valFunc(); err != nil {
		return nil, err
	}
	c.SetVal(key, val, cache.DefaultExpiration)
	return val, nil
}

// SetVal set value for key with expire time
func (c *Cache) SetVal(key string, val interface{}, expire time.Duration) {
	c.Set(key, val, expire)
}

// HitRate report the cache hit rate since creation
func (c *Cache) HitRate() float64 {
	if c.access == 0 {
		return 0
	}
	return (c.access - c.miss) / c.access
}
