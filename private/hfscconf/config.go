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

// Package hfscconf describes a scheduler class tree and an optional traffic
// simulation in TOML.
//
//	[scheduler]
//	default_class = "bulk"
//
//	[[class]]
//	name = "root"
//	ls = { m2 = "10Mbit" }
//
//	[[class]]
//	name = "bulk"
//	parent = "root"
//	ls = { m2 = "9Mbit" }
//	ul = { m1 = "10Mbit", d = "10ms", m2 = "8Mbit" }
package hfscconf

import (
	"io"
	"time"

	"github.com/scionproto/hfsc/pkg/hfsc"
	"github.com/scionproto/hfsc/pkg/hfsc/curve"
	"github.com/scionproto/hfsc/pkg/hfsc/queue"
	"github.com/scionproto/hfsc/pkg/log"
	"github.com/scionproto/hfsc/pkg/private/serrors"
	"github.com/scionproto/hfsc/pkg/private/util"
	"github.com/scionproto/hfsc/private/config"
	"github.com/scionproto/hfsc/private/env"
	"github.com/scionproto/hfsc/private/sim"
)

const (
	QueueFIFO = "fifo"
	QueueRED  = "red"

	SourceBacklogged = "backlogged"
	SourceCBR        = "cbr"
	SourceShaped     = "shaped"

	// DefaultDuration is the default simulated time.
	DefaultDuration = 10 * time.Second
	// DefaultPacketSize is the default packet size of sources in bytes.
	DefaultPacketSize = 1000
	// MaxPacketSize is the largest packet size of a source in bytes.
	MaxPacketSize = 65535
)

var _ config.Config = (*Config)(nil)

// Config is the configuration of a scheduler and its classes.
type Config struct {
	Logging   log.Config  `toml:"log,omitempty"`
	Metrics   env.Metrics `toml:"metrics,omitempty"`
	Scheduler Scheduler   `toml:"scheduler,omitempty"`
	// Classes are created in order. A parent must precede its children.
	Classes    []Class     `toml:"class,omitempty"`
	Simulation *Simulation `toml:"simulation,omitempty"`
}

// LoadFile reads, initializes and validates the configuration in file.
func LoadFile(file string) (*Config, error) {
	var cfg Config
	if err := config.LoadFile(file, &cfg); err != nil {
		return nil, err
	}
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, serrors.Wrap("validating config", err, "file", file)
	}
	return &cfg, nil
}

func (c *Config) InitDefaults() {
	config.InitAll(&c.Logging, &c.Metrics, &c.Scheduler)
	for i := range c.Classes {
		c.Classes[i].InitDefaults()
	}
	if c.Simulation != nil {
		c.Simulation.InitDefaults()
		if c.Simulation.LinkRate == 0 {
			c.Simulation.LinkRate = c.rootRate()
		}
	}
}

// rootRate is the second slope of the link-sharing curve of the root class.
func (c *Config) rootRate() Rate {
	for _, cl := range c.Classes {
		if cl.Parent == "" && cl.LinkShare != nil {
			return cl.LinkShare.M2
		}
	}
	return 0
}

// Validate checks the blocks and the class tree.
func (c *Config) Validate() error {
	if err := config.ValidateAll(&c.Logging, &c.Metrics, &c.Scheduler); err != nil {
		return err
	}
	if len(c.Classes) == 0 {
		return serrors.New("no classes configured")
	}
	if len(c.Classes) > c.Scheduler.MaxClasses {
		return serrors.New("too many classes",
			"classes", len(c.Classes), "max_classes", c.Scheduler.MaxClasses)
	}
	byName := make(map[string]*Class, len(c.Classes))
	parents := make(map[string]bool)
	roots := 0
	for i := range c.Classes {
		cl := &c.Classes[i]
		if err := cl.Validate(); err != nil {
			return err
		}
		if _, ok := byName[cl.Name]; ok {
			return serrors.New("duplicate class", "class", cl.Name)
		}
		if cl.Parent == "" {
			roots++
		} else {
			p, ok := byName[cl.Parent]
			if !ok {
				return serrors.New("parent must be declared before the class",
					"class", cl.Name, "parent", cl.Parent)
			}
			if p.LinkShare == nil {
				return serrors.New("parent needs a link-sharing curve",
					"class", cl.Name, "parent", cl.Parent)
			}
			parents[cl.Parent] = true
		}
		byName[cl.Name] = cl
	}
	if roots != 1 {
		return serrors.New("exactly one root class required", "roots", roots)
	}
	if def := c.Scheduler.DefaultClass; def != "" {
		if _, ok := byName[def]; !ok {
			return serrors.New("unknown default class", "class", def)
		}
		if parents[def] {
			return serrors.New("default class must be a leaf", "class", def)
		}
	}
	if c.Simulation != nil {
		if err := c.Simulation.Validate(byName); err != nil {
			return serrors.Wrap("validating simulation", err)
		}
	}
	return nil
}

func (c *Config) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteSample(dst, path, ctx, &c.Logging, &c.Metrics, &c.Scheduler)
	config.WriteString(dst, classSample)
	config.WriteString(dst, simulationSample)
}

// Scheduler is the configuration of the scheduler itself.
type Scheduler struct {
	// MaxClasses is the capacity of the class table.
	MaxClasses int `toml:"max_classes,omitempty"`
	// TimerSlack is the lag of the fit time that upper limited classes are
	// allowed.
	TimerSlack util.DurWrap `toml:"timer_slack,omitempty"`
	// DefaultClass receives the packets for unknown classes.
	DefaultClass string `toml:"default_class,omitempty"`
}

func (s *Scheduler) InitDefaults() {
	if s.MaxClasses == 0 {
		s.MaxClasses = hfsc.DefaultMaxClasses
	}
	if s.TimerSlack.Duration == 0 {
		s.TimerSlack.Duration = hfsc.DefaultTimerSlack
	}
}

func (s *Scheduler) Validate() error {
	if s.MaxClasses <= 0 {
		return serrors.New("max_classes must be positive", "max_classes", s.MaxClasses)
	}
	if s.TimerSlack.Duration < 0 {
		return serrors.New("negative timer_slack", "timer_slack", s.TimerSlack)
	}
	return nil
}

func (s *Scheduler) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, schedulerSample)
}

func (s *Scheduler) ConfigName() string {
	return "scheduler"
}

// Curve is a two piece linear service curve.
type Curve struct {
	M1 Rate         `toml:"m1,omitempty"`
	D  util.DurWrap `toml:"d,omitempty"`
	M2 Rate         `toml:"m2,omitempty"`
}

// ServiceCurve returns the curve in scheduler terms. A nil curve yields nil.
func (c *Curve) ServiceCurve() *curve.ServiceCurve {
	if c == nil {
		return nil
	}
	return &curve.ServiceCurve{M1: uint64(c.M1), D: c.D.Duration, M2: uint64(c.M2)}
}

// Class is the configuration of one class.
type Class struct {
	Name string `toml:"name"`
	// Parent is the name of the parent class, empty for the root class.
	Parent     string `toml:"parent,omitempty"`
	QueueLimit int    `toml:"queue_limit,omitempty"`
	// Queue is the queue discipline, fifo or red.
	Queue      string `toml:"queue,omitempty"`
	RED        *RED   `toml:"red,omitempty"`
	RealTime   *Curve `toml:"rt,omitempty"`
	LinkShare  *Curve `toml:"ls,omitempty"`
	UpperLimit *Curve `toml:"ul,omitempty"`
}

func (c *Class) InitDefaults() {
	if c.QueueLimit == 0 {
		c.QueueLimit = queue.DefaultLimit
	}
	if c.Queue == "" {
		c.Queue = QueueFIFO
	}
	if c.Queue == QueueRED && c.RED == nil {
		c.RED = &RED{}
	}
	if c.RED != nil {
		c.RED.InitDefaults()
	}
}

func (c *Class) Validate() error {
	if c.Name == "" {
		return serrors.New("class without name")
	}
	if c.QueueLimit < 0 {
		return serrors.New("negative queue_limit", "class", c.Name, "queue_limit", c.QueueLimit)
	}
	switch c.Queue {
	case QueueFIFO:
	case QueueRED:
		if err := c.RED.queueConfig(c.QueueLimit).Validate(); err != nil {
			return serrors.Wrap("invalid red parameters", err, "class", c.Name)
		}
	default:
		return serrors.New("unknown queue", "class", c.Name, "queue", c.Queue)
	}
	if c.RealTime == nil && c.LinkShare == nil {
		return serrors.New("class needs rt or ls", "class", c.Name)
	}
	for name, cv := range map[string]*Curve{
		"rt": c.RealTime, "ls": c.LinkShare, "ul": c.UpperLimit,
	} {
		if cv != nil && cv.M1 == 0 && cv.M2 == 0 {
			return serrors.New("curve without rate", "class", c.Name, "curve", name)
		}
	}
	return nil
}

func (c *Class) newQueue() (queue.Queue, error) {
	if c.Queue != QueueRED {
		return nil, nil
	}
	return queue.NewRED(c.RED.queueConfig(c.QueueLimit))
}

// RED holds the random early detection parameters. Thresholds are in
// packets.
type RED struct {
	MinThreshold   float64 `toml:"min_threshold,omitempty"`
	MaxThreshold   float64 `toml:"max_threshold,omitempty"`
	MaxProbability float64 `toml:"max_probability,omitempty"`
	Weight         float64 `toml:"weight,omitempty"`
	Seed           uint64  `toml:"seed,omitempty"`
}

func (r *RED) InitDefaults() {
	def := queue.DefaultREDConfig()
	if r.MinThreshold == 0 {
		r.MinThreshold = def.MinThreshold
	}
	if r.MaxThreshold == 0 {
		r.MaxThreshold = def.MaxThreshold
	}
	if r.MaxProbability == 0 {
		r.MaxProbability = def.MaxProbability
	}
	if r.Weight == 0 {
		r.Weight = def.Weight
	}
}

func (r *RED) queueConfig(limit int) queue.REDConfig {
	if r == nil {
		return queue.REDConfig{Limit: limit}
	}
	return queue.REDConfig{
		Limit:          limit,
		MinThreshold:   r.MinThreshold,
		MaxThreshold:   r.MaxThreshold,
		MaxProbability: r.MaxProbability,
		Weight:         r.Weight,
		Seed:           r.Seed,
	}
}

// Simulation configures a simulated link with traffic sources.
type Simulation struct {
	// LinkRate defaults to the link-sharing rate of the root class.
	LinkRate Rate         `toml:"link_rate,omitempty"`
	Duration util.DurWrap `toml:"duration,omitempty"`
	Retry    util.DurWrap `toml:"retry,omitempty"`
	// Frames sends the packets as Ethernet/IPv4/UDP frames.
	Frames   bool         `toml:"frames,omitempty"`
	Sources  []Source     `toml:"source,omitempty"`
}

func (s *Simulation) InitDefaults() {
	if s.Duration.Duration == 0 {
		s.Duration.Duration = DefaultDuration
	}
	if s.Retry.Duration == 0 {
		s.Retry.Duration = sim.DefaultRetry
	}
	for i := range s.Sources {
		s.Sources[i].InitDefaults()
	}
}

// Validate checks the simulation against the configured classes.
func (s *Simulation) Validate(classes map[string]*Class) error {
	if s.LinkRate == 0 {
		return serrors.New("link_rate not set")
	}
	for i := range s.Sources {
		src := &s.Sources[i]
		if err := src.Validate(classes); err != nil {
			return err
		}
		if s.Frames && src.Size < sim.MinFrameSize {
			return serrors.New("packet size too small for frames", "class", src.Class,
				"size", src.Size, "min", sim.MinFrameSize)
		}
	}
	return nil
}

// Config returns the simulator configuration for the sources.
func (s *Simulation) Config(ids map[string]hfsc.ClassID) (sim.Config, error) {
	srcs := make([]sim.Source, 0, len(s.Sources))
	for _, src := range s.Sources {
		id, ok := ids[src.Class]
		if !ok {
			return sim.Config{}, serrors.New("unknown class", "class", src.Class)
		}
		srcs = append(srcs, src.source(id))
	}
	return sim.Config{
		LinkRate: uint64(s.LinkRate),
		Sources:  srcs,
		Retry:    s.Retry.Duration,
		Frames:   s.Frames,
	}, nil
}

// Source is a traffic source of the simulation.
type Source struct {
	Class string `toml:"class"`
	// Kind is backlogged, cbr or shaped.
	Kind    string       `toml:"kind,omitempty"`
	Size    int          `toml:"size,omitempty"`
	Rate    Rate         `toml:"rate,omitempty"`
	Burst   int          `toml:"burst,omitempty"`
	Backlog int          `toml:"backlog,omitempty"`
	Start   util.DurWrap `toml:"start,omitempty"`
	Stop    util.DurWrap `toml:"stop,omitempty"`
}

func (s *Source) InitDefaults() {
	if s.Kind == "" {
		s.Kind = SourceBacklogged
	}
	if s.Size == 0 {
		s.Size = DefaultPacketSize
	}
}

func (s *Source) Validate(classes map[string]*Class) error {
	if _, ok := classes[s.Class]; !ok {
		return serrors.New("source for unknown class", "class", s.Class)
	}
	if s.Size <= 0 || s.Size > MaxPacketSize {
		return serrors.New("invalid packet size", "class", s.Class, "size", s.Size)
	}
	switch s.Kind {
	case SourceBacklogged:
		if s.Backlog < 0 {
			return serrors.New("negative backlog", "class", s.Class)
		}
	case SourceCBR, SourceShaped:
		if s.Rate == 0 {
			return serrors.New("source needs a rate", "class", s.Class, "kind", s.Kind)
		}
	default:
		return serrors.New("unknown source kind", "class", s.Class, "kind", s.Kind)
	}
	if s.Stop.Duration != 0 && s.Stop.Duration <= s.Start.Duration {
		return serrors.New("stop must be after start", "class", s.Class)
	}
	return nil
}

func (s *Source) source(id hfsc.ClassID) sim.Source {
	switch s.Kind {
	case SourceCBR:
		return &sim.CBR{
			ClassID: id,
			Size:    s.Size,
			Rate:    uint64(s.Rate),
			Start:   s.Start.Duration,
			Stop:    s.Stop.Duration,
		}
	case SourceShaped:
		return &sim.Shaped{ClassID: id, Size: s.Size, Rate: uint64(s.Rate), Burst: s.Burst}
	default:
		return &sim.Backlogged{ClassID: id, Size: s.Size, Backlog: s.Backlog}
	}
}
