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


package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/scionproto/hfsc/pkg/hfsc"
	"github.com/scionproto/hfsc/pkg/hfsc/clock"
	"github.com/scionproto/hfsc/pkg/log"
	"github.com/scionproto/hfsc/pkg/metrics"
	"github.com/scionproto/hfsc/pkg/private/serrors"
	"github.com/scionproto/hfsc/private/hfscconf"
	"github.com/scionproto/hfsc/private/sim"
)

// simulationFrequency is the tick rate of the simulated clock.
const simulationFrequency = uint64(time.Second)

type runFlags struct {
	config   string
	duration time.Duration
	linkRate hfscconf.Rate
	hold     bool
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.String(cfgConfigFile, "", "Configuration file (required)")
	fs.Duration(cfgDuration, 0, "Simulated duration, overrides simulation.duration")
	fs.String(cfgLinkRate, "", "Link rate, e.g. 10Mbit, overrides simulation.link_rate")
	fs.Bool(cfgHold, false, "Keep serving metrics after the simulation until interrupted")
}

func newRun(executable string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation of a configuration file",
		Example: fmt.Sprintf("  %[1]s run --config sim.toml\n"+
			"  %[1]s run --config sim.toml --duration 1m --link-rate 100Mbit", executable),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd)
			if err != nil {
				return err
			}
			flags := runFlags{
				config:   v.GetString(cfgConfigFile),
				duration: v.GetDuration(cfgDuration),
				hold:     v.GetBool(cfgHold),
			}
			if flags.config == "" {
				return serrors.New("no configuration file specified")
			}
			if s := v.GetString(cfgLinkRate); s != "" {
				if flags.linkRate, err = hfscconf.ParseRate(s); err != nil {
					return serrors.Wrap("parsing link rate", err)
				}
			}
			return run(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}
	addRunFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, out io.Writer, flags runFlags) error {
	cfg, err := hfscconf.LoadFile(flags.config)
	if err != nil {
		return err
	}
	if cfg.Simulation == nil {
		return serrors.New("no simulation configured", "file", flags.config)
	}
	if flags.duration < 0 {
		return serrors.New("negative duration", "duration", flags.duration)
	}
	if flags.duration != 0 {
		cfg.Simulation.Duration.Duration = flags.duration
	}
	if flags.linkRate != 0 {
		cfg.Simulation.LinkRate = flags.linkRate
	}
	if err := log.Setup(cfg.Logging); err != nil {
		return serrors.Wrap("initialize logging", err)
	}
	defer log.Flush()

	reg := prometheus.NewRegistry()
	clk := clock.NewManual(simulationFrequency)
	sched, ids, err := hfscconf.Build(cfg, clk,
		hfsc.WithLogger(log.New("component", "scheduler")),
		hfsc.WithMetrics(hfsc.NewMetrics(metrics.WithRegistry(reg))),
	)
	if err != nil {
		return serrors.Wrap("building scheduler", err)
	}
	simCfg, err := cfg.Simulation.Config(ids)
	if err != nil {
		return err
	}
	simCfg.Logger = log.New("component", "simulator")
	simulator, err := sim.New(sched, clk, simCfg)
	if err != nil {
		return serrors.Wrap("creating simulator", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, errCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer log.HandlePanic()
		return cfg.Metrics.ServePrometheus(errCtx, reg)
	})
	g.Go(func() error {
		defer log.HandlePanic()
		results, err := simulator.Run(errCtx, cfg.Simulation.Duration.Duration)
		if err != nil {
			return err
		}
		printResults(out, results)
		if !flags.hold || cfg.Metrics.Prometheus == "" {
			cancel()
		}
		return nil
	})
	return g.Wait()
}

func printResults(w io.Writer, results []sim.Result) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Name,
			humanize.Comma(int64(r.SentPackets)),
			humanize.Bytes(r.SentBytes),
			humanize.SI(float64(r.Rate), "bit/s"),
			humanize.Comma(int64(r.DroppedPackets)),
			r.MaxDelay.Round(time.Microsecond).String(),
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"CLASS", "SENT", "BYTES", "RATE", "DROPPED", "MAX DELAY"})
	table.AppendBulk(rows)
	table.Render()
}
