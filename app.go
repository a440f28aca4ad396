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

package mcentity

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"github.com/tutumagi/mcentity/config"
	"github.com/tutumagi/mcentity/logger"
	"github.com/tutumagi/mcentity/mcdata"
	"github.com/tutumagi/mcentity/metrics"
	"github.com/tutumagi/mcentity/session"
	"github.com/tutumagi/mcentity/stream"
	"github.com/tutumagi/mcentity/tracing"
	"go.uber.org/zap"
)

// App is the base app struct
type App struct {
	config           *config.Config
	configured       bool
	dieChan          chan bool
	dieOnce          sync.Once
	metricsReporters []metrics.Reporter
	running          bool
	serverType       string
	data             *mcdata.Data
	sessionCfg       *config.Session
	tracerCloser     io.Closer
	startAt          time.Time
}

var app = &App{
	startAt: time.Now(),
	dieChan: make(chan bool),
}

// Configure configures the app: logger, metrics, tracing and the protocol data
// of the configured version
func Configure(serverType string, cfgs ...*viper.Viper) error {
	if app.configured {
		logger.Warn("app configured twice!")
	}
	app.config = config.NewConfig(cfgs...)
	app.serverType = serverType
	logger.Init(serverType, app.config.Viper())

	sessionCfg, err := app.config.Session()
	if err != nil {
		return fmt.Errorf("invalid session config: %w", err)
	}
	app.sessionCfg = sessionCfg

	data, err := mcdata.LoadFile(sessionCfg.DataPath, sessionCfg.Version)
	if err != nil {
		return err
	}
	app.data = data
	logger.Info("protocol data loaded",
		zap.String("version", sessionCfg.Version),
		zap.Strings("features", data.Features()),
	)

	configureMetrics(serverType)
	configureTracing()
	app.configured = true
	return nil
}

func configureMetrics(serverType string) {
	app.metricsReporters = make([]metrics.Reporter, 0)
	constTags := app.config.GetStringMapString("entitytrack.metrics.consttags")

	if app.config.GetBool("entitytrack.metrics.prometheus.enabled") {
		port := app.config.GetInt("entitytrack.metrics.prometheus.port")
		logger.Infof("prometheus is enabled, configuring reporter on port %d", port)
		prometheus, err := metrics.GetPrometheusReporter(serverType, app.config.Viper(), constTags)
		if err != nil {
			logger.Errorf("failed to start prometheus metrics reporter, skipping %v", err)
		} else {
			AddMetricsReporter(prometheus)
		}
	} else {
		logger.Info("prometheus is disabled, reporter will not be enabled")
	}

	if app.config.GetBool("entitytrack.metrics.statsd.enabled") {
		logger.Infof(
			"statsd is enabled, configuring the metrics reporter with host: %s",
			app.config.GetString("entitytrack.metrics.statsd.host"),
		)
		metricsReporter, err := metrics.NewStatsdReporter(
			app.config.Viper(),
			serverType,
			constTags,
		)
		if err != nil {
			logger.Errorf("failed to start statds metrics reporter, skipping %v", err)
		} else {
			logger.Info("successfully configured statsd metrics reporter")
			AddMetricsReporter(metricsReporter)
		}
	}
}

func configureTracing() {
	closer, err := tracing.Configure(tracing.Options{
		Disabled:    app.config.GetBool("entitytrack.tracing.jaeger.disabled"),
		Probability: app.config.GetFloat64("entitytrack.tracing.jaeger.probability"),
		ServiceName: app.config.GetString("entitytrack.tracing.jaeger.servicename"),
	})
	if err != nil {
		logger.Errorf("failed to configure jaeger, tracing disabled %v", err)
		return
	}
	app.tracerCloser = closer
}

// AddMetricsReporter to be used
func AddMetricsReporter(mr metrics.Reporter) {
	app.metricsReporters = append(app.metricsReporters, mr)
}

// GetConfig gets the app config
func GetConfig() *config.Config {
	return app.config
}

// NewSession subscribes to the packets of session id on nats, the subject is
// <entitytrack.nats.subject>.<id>. The session is not started.
func NewSession(id string) (*session.Session, error) {
	if !app.configured {
		return nil, fmt.Errorf("app is not configured")
	}

	natsCfg, err := app.config.Nats()
	if err != nil {
		return nil, fmt.Errorf("invalid nats config: %w", err)
	}
	natsCfg.Subject = natsCfg.Subject + "." + id

	src, err := stream.NewNatsSource(natsCfg, app.sessionCfg.Buffer)
	if err != nil {
		return nil, err
	}

	return session.New(id, src, app.data,
		session.WithReporters(app.metricsReporters...),
		session.WithStopOnError(app.sessionCfg.StopOnError),
	), nil
}

// Start blocks until a signal or Shutdown, then closes every session
func Start() {
	app.running = true
	defer func() {
		app.running = false
	}()

	sg := make(chan os.Signal, 1)
	signal.Notify(sg, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	// stop server
	select {
	case <-app.dieChan:
		logger.Warn("the app will shutdown in a few seconds")
	case s := <-sg:
		logger.Warn("got signal, shutting down...", zap.Stringer("signal", s))
		Shutdown()
	}

	logger.Warn("server is stopping...", zap.Duration("uptime", time.Since(app.startAt)))

	session.CloseAll()
	if app.tracerCloser != nil {
		if err := app.tracerCloser.Close(); err != nil {
			logger.Error("failed to close tracer", zap.Error(err))
		}
	}
	_ = logger.Sync()
}

// Shutdown send a signal to let 'Start' return
func Shutdown() {
	app.dieOnce.Do(func() {
		close(app.dieChan)
	})
}
