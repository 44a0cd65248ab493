// Copyright 2025 OpenPubkey
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/openpubkey/gopherd/config"
	"github.com/stretchr/testify/require"
)

func TestMergeConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "gopherd.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
root: /srv/gopher
user: nobody
banner: .banner
port: 7070
show_hidden: true
on_stat_error: skip
`), 0o600))

	tests := []struct {
		name     string
		args     []string
		expected func(*config.Config)
	}{
		{
			name: "file only",
			args: []string{"--config", configPath},
			expected: func(c *config.Config) {
				c.Root = "/srv/gopher"
				c.User = "nobody"
				c.Banner = ".banner"
				c.Port = 7070
				c.ShowHidden = true
				c.OnStatError = config.StatErrorSkip
			},
		},
		{
			name: "flags override file",
			args: []string{"--config", configPath, "-p", "70", "--show-hidden=false", "--on-stat-error=ABORT", "-s", "gopher.example.org", "--log-level", "debug"},
			expected: func(c *config.Config) {
				c.Root = "/srv/gopher"
				c.User = "nobody"
				c.Banner = ".banner"
				c.Port = 70
				c.Host = "gopher.example.org"
				c.OnStatError = config.StatErrorAbort
				c.LogLevel = config.LogLevelDebug
			},
		},
		{
			name: "flags without file",
			args: []string{"-r", "/var/gopher", "-a", "-i", "--always-summarize"},
			expected: func(c *config.Config) {
				c.Root = "/var/gopher"
				c.ShowHidden = true
				c.HideSize = true
				c.AlwaysSummarize = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &rootOptions{cfg: config.Default()}
			cmd := newRootCmd(opts)
			require.NoError(t, cmd.ParseFlags(tt.args))

			cfg, err := mergeConfig(cmd, opts.cfg, opts.configPath)
			require.NoError(t, err)

			expected := config.Default()
			tt.expected(&expected)
			require.Equal(t, expected, cfg)
		})
	}
}

func TestMergeConfigMissingFile(t *testing.T) {
	opts := &rootOptions{cfg: config.Default()}
	cmd := newRootCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "nope.yml")}))

	_, err := mergeConfig(cmd, opts.cfg, opts.configPath)
	require.ErrorContains(t, err, "failed to read config file")
}

func TestSubcommands(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{name: "version", args: []string{"version"}, contains: "gopherd unversioned\n"},
		{name: "types", args: []string{"types"}, contains: ".gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			opts := &rootOptions{cfg: config.Default()}
			cmd := newRootCmd(opts)
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			require.Equal(t, 0, opts.exitCode)
			require.Contains(t, out.String(), tt.contains)
		})
	}
}
