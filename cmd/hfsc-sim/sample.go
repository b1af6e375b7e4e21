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
	"os"

	"github.com/spf13/cobra"

	"github.com/scionproto/hfsc/pkg/private/serrors"
	"github.com/scionproto/hfsc/private/config"
	"github.com/scionproto/hfsc/private/hfscconf"
)

func newSample() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Display a sample configuration file",
		Example: `  hfsc-sim sample > sim.toml
  hfsc-sim sample --out sim.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dst := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return serrors.Wrap("creating sample file", err, "file", out)
				}
				defer f.Close()
				dst = f
			}
			var cfg hfscconf.Config
			config.WriteSample(dst, nil, nil, &cfg)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the sample to this file")
	return cmd
}
