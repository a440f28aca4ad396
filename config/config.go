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

package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/go-playground/validator.v9"
)

// Config is a wrapper around a viper config
type Config struct {
	config *viper.Viper
}

// NewConfig creates a new config with a given viper config if given
func NewConfig(cfgs ...*viper.Viper) *Config {
	var cfg *viper.Viper
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	} else {
		cfg = viper.New()
	}

	cfg.SetEnvPrefix("entitytrack")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	c := &Config{config: cfg}
	c.fillDefaultValues()
	return c
}

func (c *Config) fillDefaultValues() {
	defaultsMap := map[string]interface{}{
		"entitytrack.protocol.version":            "1.8.9",
		"entitytrack.data.path":                   "./data/entities.yaml",
		"entitytrack.stream.buffer":               256,
		"entitytrack.stream.stoponerror":          false,
		"entitytrack.nats.connect":                "nats://localhost:4222",
		"entitytrack.nats.subject":                "entitytrack.packets",
		"entitytrack.nats.maxreconnectionretries": 15,
		"entitytrack.nats.connectiontimeout":      2 * time.Second,
		"entitytrack.metrics.prometheus.enabled":  false,
		"entitytrack.metrics.prometheus.port":     9090,
		"entitytrack.metrics.statsd.enabled":      false,
		"entitytrack.metrics.statsd.host":         "localhost:9125",
		"entitytrack.metrics.statsd.prefix":       "entitytrack.",
		"entitytrack.metrics.statsd.rate":         1,
		"entitytrack.metrics.consttags":           map[string]string{},
		"entitytrack.tracing.jaeger.disabled":     true,
		"entitytrack.tracing.jaeger.probability":  1.0,
		"entitytrack.tracing.jaeger.servicename":  "entitytrack",
		"logger.level":                            "info",
		"logger.dir":                              "",
		"logger.rotation":                         true,
		"logger.stdout":                           true,
		"logger.maxsize":                          100,
		"logger.maxage":                           7,
		"logger.maxbackups":                       10,
		"logger.localtime":                        true,
		"logger.compress":                         false,
	}

	for param := range defaultsMap {
		if c.config.Get(param) == nil {
			c.config.SetDefault(param, defaultsMap[param])
		}
	}
}

// Viper returns the underlying viper config
func (c *Config) Viper() *viper.Viper {
	return c.config
}

// GetDuration returns a duration from the inner config
func (c *Config) GetDuration(s string) time.Duration {
	return c.config.GetDuration(s)
}

// GetString returns a string from the inner config
func (c *Config) GetString(s string) string {
	return c.config.GetString(s)
}

// GetInt returns an int from the inner config
func (c *Config) GetInt(s string) int {
	return c.config.GetInt(s)
}

// GetFloat64 returns a float64 from the inner config
func (c *Config) GetFloat64(s string) float64 {
	return c.config.GetFloat64(s)
}

// GetBool returns an boolean from the inner config
func (c *Config) GetBool(s string) bool {
	return c.config.GetBool(s)
}

// GetStringMapString returns a string map string from the inner config
func (c *Config) GetStringMapString(s string) map[string]string {
	return c.config.GetStringMapString(s)
}

// Session is the per-connection tracking setup
type Session struct {
	Version     string `validate:"required"`
	DataPath    string `validate:"required"`
	Buffer      int    `validate:"gt=0"`
	StopOnError bool
}

// Nats is the packet transport setup
type Nats struct {
	Connect                string        `validate:"required,url"`
	Subject                string        `validate:"required"`
	MaxReconnectionRetries int           `validate:"gte=0"`
	ConnectionTimeout      time.Duration `validate:"gt=0"`
}

var validate = validator.New()

// Session reads and validates the session section
func (c *Config) Session() (*Session, error) {
	s := &Session{
		Version:     c.GetString("entitytrack.protocol.version"),
		DataPath:    c.GetString("entitytrack.data.path"),
		Buffer:      c.GetInt("entitytrack.stream.buffer"),
		StopOnError: c.GetBool("entitytrack.stream.stoponerror"),
	}
	if err := validate.Struct(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Nats reads and validates the nats section
func (c *Config) Nats() (*Nats, error) {
	n := &Nats{
		Connect:                c.GetString("entitytrack.nats.connect"),
		Subject:                c.GetString("entitytrack.nats.subject"),
		MaxReconnectionRetries: c.GetInt("entitytrack.nats.maxreconnectionretries"),
		ConnectionTimeout:      c.GetDuration("entitytrack.nats.connectiontimeout"),
	}
	if err := validate.Struct(n); err != nil {
		return nil, err
	}
	return n, nil
}
