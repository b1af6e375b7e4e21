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
package hfscconf

import (
	"github.com/scionproto/hfsc/pkg/hfsc"
	"github.com/scionproto/hfsc/pkg/hfsc/clock"
	"github.com/scionproto/hfsc/pkg/private/serrors"
)

// Build creates a scheduler with the classes of cfg and returns it together
// with the ids of the classes by name. cfg must be initialized and valid.
// opts are applied after the options derived from cfg.
func Build(cfg *Config, clk clock.Source, opts ...hfsc.Option) (*hfsc.Scheduler,
	map[string]hfsc.ClassID, error) {

	opts = append([]hfsc.Option{
		hfsc.WithMaxClasses(cfg.Scheduler.MaxClasses),
		hfsc.WithTimerSlack(cfg.Scheduler.TimerSlack.Duration),
	}, opts...)
	sched, err := hfsc.New(clk, opts...)
	if err != nil {
		return nil, nil, err
	}
	ids := make(map[string]hfsc.ClassID, len(cfg.Classes))
	for i := range cfg.Classes {
		cl := &cfg.Classes[i]
		q, err := cl.newQueue()
		if err != nil {
			return nil, nil, serrors.Wrap("creating queue", err, "class", cl.Name)
		}
		parent := hfsc.NoClass
		if cl.Parent != "" {
			var ok bool
			if parent, ok = ids[cl.Parent]; !ok {
				return nil, nil, serrors.New("unknown parent",
					"class", cl.Name, "parent", cl.Parent)
			}
		}
		id, err := sched.CreateClass(hfsc.ClassConfig{
			Name:       cl.Name,
			Parent:     parent,
			RealTime:   cl.RealTime.ServiceCurve(),
			LinkShare:  cl.LinkShare.ServiceCurve(),
			UpperLimit: cl.UpperLimit.ServiceCurve(),
			QueueLimit: cl.QueueLimit,
			Queue:      q,
		})
		if err != nil {
			return nil, nil, serrors.Wrap("creating class", err, "class", cl.Name)
		}
		ids[cl.Name] = id
	}
	if def := cfg.Scheduler.DefaultClass; def != "" {
		id, ok := ids[def]
		if !ok {
			return nil, nil, serrors.New("unknown default class", "class", def)
		}
		if err := sched.SetDefaultClass(id); err != nil {
			return nil, nil, err
		}
	}
	return sched, ids, nil
}
