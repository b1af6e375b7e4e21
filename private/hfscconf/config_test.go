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
package hfscconf_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scionproto/hfsc/pkg/hfsc"
	"github.com/scionproto/hfsc/pkg/hfsc/clock"
	"github.com/scionproto/hfsc/pkg/log/testlog"
	"github.com/scionproto/hfsc/pkg/private/util"
	"github.com/scionproto/hfsc/private/config"
	"github.com/scionproto/hfsc/private/hfscconf"
	"github.com/scionproto/hfsc/private/sim"
)

func sampleConfig(t *testing.T) *hfscconf.Config {
	t.Helper()
	var sample bytes.Buffer
	var empty hfscconf.Config
	config.WriteSample(&sample, nil, nil, &empty)

	var cfg hfscconf.Config
	require.NoError(t, config.Decode(sample.Bytes(), &cfg), sample.String())
	cfg.InitDefaults()
	require.NoError(t, cfg.Validate())
	return &cfg
}

func dur(d time.Duration) util.DurWrap {
	return util.DurWrap{Duration: d}
}

func TestSample(t *testing.T) {
	cfg := sampleConfig(t)

	assert.Equal(t, "info", cfg.Logging.Console.Level)
	assert.Empty(t, cfg.Metrics.Prometheus)
	assert.Equal(t, hfscconf.Scheduler{
		MaxClasses:   64,
		TimerSlack:   dur(time.Millisecond),
		DefaultClass: "bulk",
	}, cfg.Scheduler)

	want := []hfscconf.Class{
		{
			Name:       "root",
			QueueLimit: 50,
			Queue:      "fifo",
			LinkShare:  &hfscconf.Curve{M2: 10_000_000},
		},
		{
			Name:       "voice",
			Parent:     "root",
			QueueLimit: 50,
			Queue:      "fifo",
			RealTime: &hfscconf.Curve{
				M1: 2_000_000,
				D:  dur(5 * time.Millisecond),
				M2: 500_000,
			},
		},
		{
			Name:       "bulk",
			Parent:     "root",
			QueueLimit: 100,
			Queue:      "red",
			RED: &hfscconf.RED{
				MinThreshold:   10,
				MaxThreshold:   40,
				MaxProbability: 0.1,
				Weight:         1.0 / 512,
				Seed:           1,
			},
			LinkShare:  &hfscconf.Curve{M2: 9_000_000},
			UpperLimit: &hfscconf.Curve{M2: 8_000_000},
		},
	}
	if diff := cmp.Diff(want, cfg.Classes); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}

	wantSim := &hfscconf.Simulation{
		LinkRate: 10_000_000,
		Duration: dur(10 * time.Second),
		Retry:    dur(100 * time.Microsecond),
		Sources: []hfscconf.Source{
			{
				Class: "voice",
				Kind:  "cbr",
				Size:  200,
				Rate:  400_000,
				Start: dur(time.Second),
				Stop:  dur(9 * time.Second),
			},
			{Class: "bulk", Kind: "backlogged", Size: 1500, Backlog: 20},
		},
	}
	if diff := cmp.Diff(wantSim, cfg.Simulation); diff != "" {
		t.Errorf("simulation mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild(t *testing.T) {
	cfg := sampleConfig(t)
	clk := clock.NewManual(uint64(time.Second))
	sched, ids, err := hfscconf.Build(cfg, clk, hfsc.WithLogger(testlog.NewLogger(t)))
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, ids["root"], sched.Root())
	assert.Equal(t, ids["bulk"], sched.DefaultClass())

	voice, err := sched.Stats(ids["voice"])
	require.NoError(t, err)
	assert.Equal(t, ids["root"], voice.Parent)
	require.NotNil(t, voice.RealTime)
	assert.Equal(t, 5*time.Millisecond, voice.RealTime.D)
	assert.Nil(t, voice.LinkShare)

	// Unknown classes end up in the default class.
	require.NoError(t, sched.Enqueue(99, &sim.Packet{Size: 100}))
	bulk, err := sched.Stats(ids["bulk"])
	require.NoError(t, err)
	assert.Equal(t, 1, bulk.QueueLength)

	simCfg, err := cfg.Simulation.Config(ids)
	require.NoError(t, err)
	require.Len(t, simCfg.Sources, 2)
	assert.Equal(t, ids["voice"], simCfg.Sources[0].Class())
	assert.IsType(t, &sim.CBR{}, simCfg.Sources[0])
	assert.IsType(t, &sim.Backlogged{}, simCfg.Sources[1])
	assert.Equal(t, uint64(10_000_000), simCfg.LinkRate)
}

func TestSimulateSample(t *testing.T) {
	cfg := sampleConfig(t)
	clk := clock.NewManual(uint64(time.Second))
	sched, ids, err := hfscconf.Build(cfg, clk)
	require.NoError(t, err)
	simCfg, err := cfg.Simulation.Config(ids)
	require.NoError(t, err)
	simCfg.Logger = testlog.NewLogger(t)
	s, err := sim.New(sched, clk, simCfg)
	require.NoError(t, err)

	results, err := s.Run(t.Context(), 2*time.Second)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// voice starts after one second.
	assert.InDelta(t, 200_000, results[0].Rate, 5_000)
	// bulk is capped by its upper limit.
	assert.LessOrEqual(t, results[1].Rate, uint64(8_100_000))
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *hfscconf.Config){
		"no classes": func(c *hfscconf.Config) { c.Classes = nil },
		"duplicate": func(c *hfscconf.Config) {
			c.Classes = append(c.Classes, c.Classes[1])
		},
		"two roots": func(c *hfscconf.Config) { c.Classes[1].Parent = "" },
		"parent later": func(c *hfscconf.Config) {
			c.Classes[0], c.Classes[1] = c.Classes[1], c.Classes[0]
		},
		"parent without ls": func(c *hfscconf.Config) {
			c.Classes = append(c.Classes, hfscconf.Class{
				Name: "sub", Parent: "voice", Queue: "fifo",
				LinkShare: &hfscconf.Curve{M2: 1000},
			})
		},
		"no curve":      func(c *hfscconf.Config) { c.Classes[1].RealTime = nil },
		"zero curve":    func(c *hfscconf.Config) { c.Classes[2].UpperLimit = &hfscconf.Curve{} },
		"unknown queue": func(c *hfscconf.Config) { c.Classes[0].Queue = "sfq" },
		"bad red":       func(c *hfscconf.Config) { c.Classes[2].RED.MaxThreshold = 1 },
		"too many":      func(c *hfscconf.Config) { c.Scheduler.MaxClasses = 2 },
		"unknown default": func(c *hfscconf.Config) {
			c.Scheduler.DefaultClass = "none"
		},
		"interior default": func(c *hfscconf.Config) {
			c.Scheduler.DefaultClass = "root"
		},
		"bad log level": func(c *hfscconf.Config) { c.Logging.Console.Level = "trace" },
		"source class": func(c *hfscconf.Config) {
			c.Simulation.Sources[0].Class = "none"
		},
		"source kind": func(c *hfscconf.Config) {
			c.Simulation.Sources[0].Kind = "poisson"
		},
		"source rate": func(c *hfscconf.Config) { c.Simulation.Sources[0].Rate = 0 },
		"source size": func(c *hfscconf.Config) { c.Simulation.Sources[1].Size = 70000 },
		"source stop": func(c *hfscconf.Config) {
			c.Simulation.Sources[0].Stop = dur(time.Second)
		},
		"frames too small": func(c *hfscconf.Config) {
			c.Simulation.Frames = true
			c.Simulation.Sources[0].Size = 40
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := sampleConfig(t)
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLinkRateDefault(t *testing.T) {
	raw := `
[[class]]
name = "root"
ls = { m2 = "100Mbit" }

[simulation]
duration = "1s"
`
	file := filepath.Join(t.TempDir(), "hfsc.toml")
	require.NoError(t, os.WriteFile(file, []byte(raw), 0o600))
	cfg, err := hfscconf.LoadFile(file)
	require.NoError(t, err)
	assert.Equal(t, hfscconf.Rate(100_000_000), cfg.Simulation.LinkRate)
	assert.Equal(t, time.Second, cfg.Simulation.Duration.Duration)

	require.NoError(t, os.WriteFile(file, []byte("[[class]]\nname = \"x\"\n"), 0o600))
	_, err = hfscconf.LoadFile(file)
	assert.Error(t, err)
}

func TestParseRate(t *testing.T) {
	tests := map[string]struct {
		in        string
		want      hfscconf.Rate
		assertErr assert.ErrorAssertionFunc
	}{
		"plain":      {in: "64000", want: 64000, assertErr: assert.NoError},
		"kbit":       {in: "500kbit", want: 500_000, assertErr: assert.NoError},
		"Mbit":       {in: "10Mbit", want: 10_000_000, assertErr: assert.NoError},
		"fraction":   {in: "1.5Mbit", want: 1_500_000, assertErr: assert.NoError},
		"Gbit":       {in: "1Gbit", want: 1_000_000_000, assertErr: assert.NoError},
		"space":      {in: "2 Mbit", want: 2_000_000, assertErr: assert.NoError},
		"bytes":      {in: "1kB", want: 8000, assertErr: assert.NoError},
		"bps":        {in: "100kbps", want: 100_000, assertErr: assert.NoError},
		"milli":      {in: "500mbit", assertErr: assert.Error},
		"unit":       {in: "5Mbaud", assertErr: assert.Error},
		"negative":   {in: "-1Mbit", assertErr: assert.Error},
		"garbage":    {in: "fast", assertErr: assert.Error},
		"not number": {in: "", assertErr: assert.Error},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := hfscconf.ParseRate(tc.in)
			tc.assertErr(t, err)
			if err == nil {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestRateText(t *testing.T) {
	for _, r := range []hfscconf.Rate{0, 64_000, 1_500_000, 10_000_000_000} {
		text, err := r.MarshalText()
		require.NoError(t, err)
		var got hfscconf.Rate
		require.NoError(t, got.UnmarshalText(text), string(text))
		assert.Equal(t, r, got)
	}
	assert.Equal(t, "10Mbit", hfscconf.Rate(10_000_000).String())
}
