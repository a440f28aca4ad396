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

package tracing

import (
	"context"
	"io"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/tutumagi/mcentity/logger"
	"github.com/uber/jaeger-client-go/config"
	"go.uber.org/zap"
)

// Options holds configuration options for Jaeger
type Options struct {
	Disabled    bool
	Probability float64
	ServiceName string
}

// Configure configures a global Jaeger tracer
func Configure(options Options) (io.Closer, error) {
	logger.Info("configuring jaeger",
		zap.String("serviceName", options.ServiceName),
		zap.Float64("probability", options.Probability),
		zap.Bool("disabled", options.Disabled),
	)

	cfg := config.Configuration{
		ServiceName: options.ServiceName,
		Disabled:    options.Disabled,
		Sampler: &config.SamplerConfig{
			Type:  "probabilistic",
			Param: options.Probability,
		},
	}

	closer, err := cfg.InitGlobalTracer(options.ServiceName)
	if err != nil {
		return nil, err
	}
	return closer, nil
}

// StartSpan starts a child span of whatever span ctx carries
func StartSpan(ctx context.Context, opName string, tags opentracing.Tags) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, opName, tags)
}

// FinishSpan finishes a span, tagging it when err is not nil
func FinishSpan(span opentracing.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		ext.Error.Set(span, true)
		span.LogKV("event", "error", "message", err.Error())
	}
	span.Finish()
}
