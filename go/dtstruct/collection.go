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
	"errors"
	"sync"
	"time"
)

// Metric is one timed sample in a collection: when an operation ran,
// what it was, how long it took and whether it succeeded.
type Metric struct {
	Timestamp time.Time
	Name      string
	Latency   time.Duration
	Failed    bool
}

// Collection keeps high frequency metric samples and expires them after a
// retention period, so monitoring can pull raw or aggregated data over http
// without the process growing without bound.
type Collection struct {
	sync.Mutex
	metricList   []*Metric
	expirePeriod time.Duration
	done         chan struct{}
	monitoring   bool
}

// NewCollection create a collection retaining samples for given period
func NewCollection(expirePeriod time.Duration) *Collection {
	return &Collection{expirePeriod: expirePeriod, done: make(chan struct{})}
}

// Append adds a sample to the collection
func (c *Collection) Append(m *Metric) error {
	if c == nil {
		return errors.New("collection is nil")
	}
	c.Lock()
	defer c.Unlock()
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	c.metricList = append(c.metricList, m)
	return nil
}

// Since returns the samples recorded at or after given time
func (c *Collection) Since(t time.Time) (res []*Metric, err error) {
	if c == nil {
		return nil, errors.New("collection is nil")
	}
	c.Lock()
	defer c.Unlock()
	for _, m := range c.metricList {
		if !m.Timestamp.Before(t) {
			res = append(res, m)
		}
	}
	return res, nil
}

// expire drops samples older than the retention period
func (c *Collection) expire() {
	c.Lock()
	defer c.Unlock()
	horizon := time.Now().Add(-c.expirePeriod)
	kept := 0
	for _, m := range c.metricList {
		if m.Timestamp.After(horizon) {
			c.metricList[kept] = m
			kept++
		}
	}
	c.metricList = c.metricList[:kept]
}

// StartAutoExpiration periodically removes samples past the retention period.
// Runs until StopAutoExpiration is called.
func (c *Collection) StartAutoExpiration() {
	c.Lock()
	if c.monitoring {
		c.Unlock()
		return
	}
	c.monitoring = true
	c.Unlock()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.expire()
		case <-c.done:
			return
		}
	}
}

// StopAutoExpiration terminates the auto expiry procedure
func (c *Collection) StopAutoExpiration() {
	c.Lock()
	if !c.monitoring {
		c.Unlock()
		return
	}
	c.monitoring = false
	c.Unlock()
	c.done <- struct{}{}
}
