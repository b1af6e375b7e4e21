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
package config_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scionproto/hfsc/private/config"
)

type limits struct {
	config.NoDefaulter
	Max int `toml:"max"`
}

func (l limits) Validate() error {
	if l.Max < 0 {
		return errors.New("negative max")
	}
	return nil
}

func (limits) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, "max = 3\n")
}

func (limits) ConfigName() string {
	return "limits"
}

func TestWriteSample(t *testing.T) {
	var buf bytes.Buffer
	config.WriteSample(&buf, nil, nil,
		config.StringSampler{Text: "# top\n"},
		limits{},
	)
	assert.Equal(t, "# top\n\n[limits]\n    max = 3\n", buf.String())

	var decoded struct {
		Limits limits `toml:"limits"`
	}
	require.NoError(t, config.Decode(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded.Limits.Max)

	buf.Reset()
	config.WriteSample(&buf, nil, nil, config.StringSampler{Text: "max = 4\n", Name: "extra"})
	assert.Equal(t, "\n[extra]\n    max = 4\n", buf.String())
}

func TestDecodeUnknownField(t *testing.T) {
	var cfg struct {
		Max int `toml:"max"`
	}
	assert.Error(t, config.Decode([]byte("other = 1\n"), &cfg))
}

func TestValidateAll(t *testing.T) {
	assert.NoError(t, config.ValidateAll(limits{Max: 1}, config.NoValidator{}))
	assert.Error(t, config.ValidateAll(limits{Max: 1}, limits{Max: -1}))
}

func TestLoadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cfg.toml")
	require.NoError(t, os.WriteFile(file, []byte("max = 7\n"), 0o600))
	var cfg struct {
		Max int `toml:"max"`
	}
	require.NoError(t, config.LoadFile(file, &cfg))
	assert.Equal(t, 7, cfg.Max)
	assert.Error(t, config.LoadFile(filepath.Join(t.TempDir(), "missing"), &cfg))
}

func TestPathExtend(t *testing.T) {
	p := config.Path{"a"}
	q := p.Extend("b")
	assert.Equal(t, config.Path{"a"}, p)
	assert.Equal(t, config.Path{"a", "b"}, q)
}
