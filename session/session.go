// Copyright (c) nano Author and TFG Co. All Rights Reserved.
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

package session

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/tutumagi/mcentity/logger"
	"github.com/tutumagi/mcentity/mcdata"
	"github.com/tutumagi/mcentity/metrics"
	"github.com/tutumagi/mcentity/protocol"
	"github.com/tutumagi/mcentity/stream"
	"github.com/tutumagi/mcentity/tracker"
	"go.uber.org/zap"
)

// PacketSource feeds one session with packets, stream.NatsSource in production
type PacketSource interface {
	Packets() <-chan *protocol.Packet
	Close() error
}

var (
	// SessionCloseCallbacks contains global session close callbacks
	SessionCloseCallbacks = make([]func(s *Session), 0)
	sessionsByID          sync.Map
	// SessionCount keeps the current number of sessions
	SessionCount int64
)

// Session tracks the entities of one proxied connection. Its packets are
// handled one at a time by a single goroutine.
type Session struct {
	id         string
	source     PacketSource
	dispatcher *stream.Dispatcher
	tracker    *tracker.Tracker

	OnCloseCallbacks []func() //onClose callbacks

	cancel    context.CancelFunc
	done      chan struct{}
	err       error
	startOnce sync.Once
	closeOnce sync.Once
}

type options struct {
	reporters   []metrics.Reporter
	stopOnError bool
}

// Option configures a Session
type Option func(*options)

// WithReporters reports packet, event and registry metrics
func WithReporters(reporters ...metrics.Reporter) Option {
	return func(o *options) {
		o.reporters = append(o.reporters, reporters...)
	}
}

// WithStopOnError ends the session on the first failed packet
func WithStopOnError(stop bool) Option {
	return func(o *options) {
		o.stopOnError = stop
	}
}

// New returns a new session reading src, the pose strategy is negotiated
// from data here
func New(id string, src PacketSource, data mcdata.Registry, opts ...Option) *Session {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	d := stream.NewDispatcher(
		stream.WithReporters(o.reporters...),
		stream.WithStopOnError(o.stopOnError),
	)
	s := &Session{
		id:               id,
		source:           src,
		dispatcher:       d,
		tracker:          tracker.New(d, data, tracker.WithReporters(o.reporters...)),
		OnCloseCallbacks: []func(){},
		done:             make(chan struct{}),
	}

	sessionsByID.Store(id, s)
	atomic.AddInt64(&SessionCount, 1)
	return s
}

// GetSessionByID return a session by its id
func GetSessionByID(id string) *Session {
	if val, ok := sessionsByID.Load(id); ok {
		return val.(*Session)
	}
	return nil
}

// OnSessionClose adds a method that will be called when every session closes
func OnSessionClose(f func(s *Session)) {
	sf1 := reflect.ValueOf(f)
	for _, fun := range SessionCloseCallbacks {
		sf2 := reflect.ValueOf(fun)
		if sf1.Pointer() == sf2.Pointer() {
			return
		}
	}
	SessionCloseCallbacks = append(SessionCloseCallbacks, f)
}

// CloseAll calls Close on all sessions
func CloseAll() {
	logger.Info("closing all sessions", zap.Int64("count", atomic.LoadInt64(&SessionCount)))
	sessionsByID.Range(func(_, value interface{}) bool {
		s := value.(*Session)
		s.Close()
		return true
	})
	logger.Info("finished closing sessions")
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Tracker subscribe to its events before Start
func (s *Session) Tracker() *tracker.Tracker {
	return s.tracker
}

// Start drains the source in the background until it ends, fails with
// stop-on-error, or the session is closed
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		logger.Info("session started", zap.String("session", s.id))
		go func() {
			defer close(s.done)
			s.err = s.dispatcher.Run(ctx, s.source.Packets())
			if s.err != nil && s.err != context.Canceled {
				logger.Error("session stopped", zap.String("session", s.id), zap.Error(s.err))
			}
		}()
	})
}

// Done is closed when the packet loop has ended
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err why the packet loop ended, nil when the source was exhausted
func (s *Session) Err() error {
	select {
	case <-s.done:
		if s.err == context.Canceled {
			return nil
		}
		return s.err
	default:
		return nil
	}
}

// OnClose adds the function it receives to the callbacks that will be called
// when the session is closed
func (s *Session) OnClose(c func()) {
	s.OnCloseCallbacks = append(s.OnCloseCallbacks, c)
}

// Close stops the packet loop, closes the source and resets the tracker.
// Tracked entities are invalidated without destroy events.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		atomic.AddInt64(&SessionCount, -1)
		sessionsByID.Delete(s.id)

		if err := s.source.Close(); err != nil {
			logger.Error("error closing packet source", zap.String("session", s.id), zap.Error(err))
		}
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}

		s.tracker.Reset()
		for _, fn := range s.OnCloseCallbacks {
			fn()
		}
		for _, fn := range SessionCloseCallbacks {
			fn(s)
		}
		logger.Info("session closed", zap.String("session", s.id))
	})
}
