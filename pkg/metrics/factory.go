// Copyright 2026 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Factory.
type Option func(*options)

type options struct {
	registry prometheus.Registerer
}

// WithRegistry registers the metrics with the given registerer instead of
// the prometheus default registerer.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// Factory creates prometheus metric vectors and registers them.
type Factory struct {
	registry prometheus.Registerer
}

// NewFactory creates a factory from the options.
func NewFactory(opts ...Option) Factory {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.DefaultRegisterer
	}
	return Factory{registry: o.registry}
}

// NewCounterVec creates and registers a counter vector.
func (f Factory) NewCounterVec(
	opts prometheus.CounterOpts,
	labelNames []string,
) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labelNames)
	f.registry.MustRegister(c)
	return c
}

// NewGaugeVec creates and registers a gauge vector.
func (f Factory) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(opts, labelNames)
	f.registry.MustRegister(g)
	return g
}
