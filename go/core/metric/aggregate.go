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

// Package metric aggregates raw engine operation samples for the monitoring api.
package metric

import (
	"time"

	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"github.com/montanaflynn/stats"
)

// OperationCollection holds per engine command latency samples, retained for an hour
var OperationCollection = dtstruct.NewCollection(time.Hour)

// AggregatedOperation is the summary served to monitoring systems
type AggregatedOperation struct {
	Count             int     `json:"count"`
	FailedCount       int     `json:"failedCount"`
	MaxLatencySeconds float64 `json:"maxLatencySeconds"`
	MeanSeconds       float64 `json:"meanSeconds"`
	MedianSeconds     float64 `json:"medianSeconds"`
	P95Seconds        float64 `json:"p95Seconds"`
}

// Record appends one engine command sample to the operation collection
func Record(name string, latency time.Duration, failed bool) {
	_ = OperationCollection.Append(&dtstruct.Metric{Name: name, Latency: latency, Failed: failed})
}

// AggregatedSince returns the aggregated operation metric for the period given
func AggregatedSince(c *dtstruct.Collection, t time.Time) AggregatedOperation {
	metricList, err := c.Since(t)
	if err != nil {
		return AggregatedOperation{}
	}

	var latencyList []float64
	agg := AggregatedOperation{}
	for _, m := range metricList {
		latencyList = append(latencyList, m.Latency.Seconds())
		if m.Failed {
			agg.FailedCount++
		}
	}
	agg.Count = len(latencyList)

	var aggVal float64
	if aggVal, err = stats.Max(latencyList); err == nil {
		agg.MaxLatencySeconds = aggVal
	}
	if aggVal, err = stats.Mean(latencyList); err == nil {
		agg.MeanSeconds = aggVal
	}
	if aggVal, err = stats.Median(latencyList); err == nil {
		agg.MedianSeconds = aggVal
	}
	if aggVal, err = stats.Percentile(latencyList, 95); err == nil {
		agg.P95Seconds = aggVal
	}
	return agg
}
