// Copyright (c) TFG Co. All Rights Reserved.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package metrics

import (
	"fmt"
	"sort"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/spf13/viper"
	"github.com/tutumagi/mcentity/logger"
)

// Client is the interface to required dogstatsd functions
type Client interface {
	Count(name string, value int64, tags []string, rate float64) error
	Gauge(name string, value float64, tags []string, rate float64) error
	TimeInMilliseconds(name string, value float64, tags []string, rate float64) error
}

// StatsdReporter sends application metrics to statsd
type StatsdReporter struct {
	client      Client
	rate        float64
	serverType  string
	defaultTags []string
}

// NewStatsdReporter returns an instance of statsd reporter and an error if
// something went wrong
//	 keys: entitytrack.metrics.statsd.host .prefix .rate
func NewStatsdReporter(config *viper.Viper, serverType string, constTags map[string]string, clientOrNil ...Client) (*StatsdReporter, error) {
	host := config.GetString("entitytrack.metrics.statsd.host")
	prefix := config.GetString("entitytrack.metrics.statsd.prefix")
	rate := config.GetFloat64("entitytrack.metrics.statsd.rate")

	sr := &StatsdReporter{
		rate:       rate,
		serverType: serverType,
	}
	sr.buildDefaultTags(constTags)

	if len(clientOrNil) > 0 {
		sr.client = clientOrNil[0]
		return sr, nil
	}

	c, err := statsd.New(host, statsd.WithNamespace(prefix))
	if err != nil {
		return nil, err
	}
	sr.client = c
	return sr, nil
}

func (s *StatsdReporter) buildDefaultTags(tagsMap map[string]string) {
	defaultTags := make([]string, 0, len(tagsMap)+1)
	defaultTags = append(defaultTags, fmt.Sprintf("serverType:%s", s.serverType))
	for k, v := range tagsMap {
		defaultTags = append(defaultTags, fmt.Sprintf("%s:%s", k, v))
	}
	sort.Strings(defaultTags[1:])
	s.defaultTags = defaultTags
}

func (s *StatsdReporter) tags(tagsMap map[string]string) []string {
	fullTags := make([]string, 0, len(s.defaultTags)+len(tagsMap))
	fullTags = append(fullTags, s.defaultTags...)
	extra := make([]string, 0, len(tagsMap))
	for k, v := range tagsMap {
		extra = append(extra, fmt.Sprintf("%s:%s", k, v))
	}
	sort.Strings(extra)
	return append(fullTags, extra...)
}

// ReportCount sends count reports to statsd
func (s *StatsdReporter) ReportCount(metric string, tagsMap map[string]string, count float64) error {
	err := s.client.Count(metric, int64(count), s.tags(tagsMap), s.rate)
	if err != nil {
		logger.Errorf("failed to report count: %q", err)
	}
	return err
}

// ReportGauge sents the gauge value and reports to statsd
func (s *StatsdReporter) ReportGauge(metric string, tagsMap map[string]string, value float64) error {
	err := s.client.Gauge(metric, value, s.tags(tagsMap), s.rate)
	if err != nil {
		logger.Errorf("failed to report gauge: %q", err)
	}
	return err
}

// ReportSummary observes the summary value and reports to statsd, values are
// nanoseconds and sent as milliseconds
func (s *StatsdReporter) ReportSummary(metric string, tagsMap map[string]string, value float64) error {
	err := s.client.TimeInMilliseconds(metric, value/1e6, s.tags(tagsMap), s.rate)
	if err != nil {
		logger.Errorf("failed to report summary: %q", err)
	}
	return err
}
