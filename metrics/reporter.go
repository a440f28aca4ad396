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
	"time"

	"github.com/tutumagi/mcentity/logger"
	"go.uber.org/zap"
)

// Metric names
const (
	// PacketsHandled counts dispatched packets, tags kind and status
	PacketsHandled = "packets_handled"
	// PacketHandleTime packet handling time in nanoseconds, tag kind
	PacketHandleTime = "packet_handle_time_ns"
	// EventsEmitted counts domain events, tags event and status
	EventsEmitted = "events_emitted"
	// EntitiesTracked number of entities in the registry
	EntitiesTracked = "entities_tracked"
)

// Status tag values
const (
	StatusOK    = "ok"
	StatusError = "failed"
)

// Reporter interface
type Reporter interface {
	ReportCount(metric string, tags map[string]string, count float64) error
	ReportSummary(metric string, tags map[string]string, value float64) error
	ReportGauge(metric string, tags map[string]string, value float64) error
}

// Reporters fans a report out to several reporters
type Reporters []Reporter

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// ReportPacket reports a handled packet
func (rs Reporters) ReportPacket(kind string, start time.Time, err error) {
	elapsed := float64(time.Since(start).Nanoseconds())
	for _, r := range rs {
		if rErr := r.ReportCount(PacketsHandled, map[string]string{"kind": kind, "status": status(err)}, 1); rErr != nil {
			logger.Warn("failed to report packet count", zap.String("kind", kind), zap.Error(rErr))
		}
		if rErr := r.ReportSummary(PacketHandleTime, map[string]string{"kind": kind}, elapsed); rErr != nil {
			logger.Warn("failed to report packet handle time", zap.String("kind", kind), zap.Error(rErr))
		}
	}
}

// ReportEvent reports an emitted domain event
func (rs Reporters) ReportEvent(name string, err error) {
	for _, r := range rs {
		if rErr := r.ReportCount(EventsEmitted, map[string]string{"event": name, "status": status(err)}, 1); rErr != nil {
			logger.Warn("failed to report event", zap.String("event", name), zap.Error(rErr))
		}
	}
}

// ReportEntities reports the registry size
func (rs Reporters) ReportEntities(n int) {
	for _, r := range rs {
		if rErr := r.ReportGauge(EntitiesTracked, map[string]string{}, float64(n)); rErr != nil {
			logger.Warn("failed to report entities gauge", zap.Error(rErr))
		}
	}
}
