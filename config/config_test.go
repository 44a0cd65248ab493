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

package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name     string
		yamlData string
		want     func(c *Config)
		errMsg   string
	}{
		{
			name:     "empty file keeps defaults",
			yamlData: "",
			want:     func(c *Config) {},
		},
		{
			name: "complete config",
			yamlData: `---
root: /srv/gopher
user: gopher
banner: .banner
host: gopher.example.org
port: 7070
show_hidden: true
hide_size: true
on_stat_error: skip
always_summarize: true
log_dir: /var/log/gopherd
log_level: debug
`,
			want: func(c *Config) {
				c.Root = "/srv/gopher"
				c.User = "gopher"
				c.Banner = ".banner"
				c.Host = "gopher.example.org"
				c.Port = 7070
				c.ShowHidden = true
				c.HideSize = true
				c.OnStatError = StatErrorSkip
				c.AlwaysSummarize = true
				c.LogDir = "/var/log/gopherd"
				c.LogLevel = LogLevelDebug
			},
		},
		{
			name:     "enum values are case-insensitive",
			yamlData: "on_stat_error: SKIP\nlog_level: Warning\n",
			want: func(c *Config) {
				c.OnStatError = StatErrorSkip
				c.LogLevel = LogLevelWarn
			},
		},
		{
			name:     "unknown stat policy",
			yamlData: "on_stat_error: ignore\n",
			errMsg:   `invalid on_stat_error "ignore"`,
		},
		{
			name:     "unknown log level",
			yamlData: "log_level: chatty\n",
			errMsg:   `invalid log_level "chatty"`,
		},
		{
			name:     "malformed",
			yamlData: "port: [\n",
			errMsg:   "yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewConfig([]byte(tt.yamlData))
			if tt.errMsg != "" {
				require.ErrorContains(t, err, tt.errMsg)
				return
			}
			require.NoError(t, err)

			want := Default()
			tt.want(&want)
			require.Equal(t, want, *got)
		})
	}
}

func TestLoad(t *testing.T) {
	mockFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mockFs, "/etc/gopherd.yml", []byte("banner: .banner\n"), 0640))

	c, err := Load(mockFs, "/etc/gopherd.yml")
	require.NoError(t, err)
	require.Equal(t, ".banner", c.Banner)
	require.Equal(t, DefaultHost, c.Host)

	_, err = Load(mockFs, "/etc/missing.yml")
	require.ErrorContains(t, err, "failed to read config file")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(c *Config)
		expected func(c *Config)
		errMsg   string
	}{
		{
			name:     "defaults are valid",
			modify:   func(c *Config) {},
			expected: func(c *Config) {},
		},
		{
			name:     "root is cleaned",
			modify:   func(c *Config) { c.Root = "/srv//gopher/" },
			expected: func(c *Config) { c.Root = "/srv/gopher" },
		},
		{
			name:     "unicode host becomes punycode",
			modify:   func(c *Config) { c.Host = "bücher.example" },
			expected: func(c *Config) { c.Host = "xn--bcher-kva.example" },
		},
		{
			name:   "host with tab",
			modify: func(c *Config) { c.Host = "evil\thost" },
			errMsg: "invalid host",
		},
		{
			name:   "empty host",
			modify: func(c *Config) { c.Host = "" },
			errMsg: "host must not be empty",
		},
		{
			name:   "port zero",
			modify: func(c *Config) { c.Port = 0 },
			errMsg: "port 0 out of range",
		},
		{
			name:   "port too large",
			modify: func(c *Config) { c.Port = 70000 },
			errMsg: "port 70000 out of range",
		},
		{
			name:   "banner with slash",
			modify: func(c *Config) { c.Banner = "../banner" },
			errMsg: "banner must be a plain filename",
		},
		{
			name:   "banner dot dot",
			modify: func(c *Config) { c.Banner = ".." },
			errMsg: "banner must be a plain filename",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.Port = 70
			tt.modify(&c)
			err := c.Normalize()
			if tt.errMsg != "" {
				require.ErrorContains(t, err, tt.errMsg)
				return
			}
			require.NoError(t, err)

			want := Default()
			want.Port = 70
			tt.expected(&want)
			require.Equal(t, want, c)
		})
	}
}

func TestEnumStrings(t *testing.T) {
	require.Equal(t, "abort", StatErrorAbort.String())
	require.Equal(t, "skip", StatErrorSkip.String())
	require.Equal(t, "warn", LogLevelWarn.String())
	require.Equal(t, zapcore.DebugLevel, LogLevelDebug.ZapLevel())
	require.Equal(t, zapcore.InfoLevel, LogLevelInfo.ZapLevel())
	require.Equal(t, zapcore.ErrorLevel, LogLevelError.ZapLevel())
}

func TestDefaultPort(t *testing.T) {
	require.Equal(t, 70, DefaultPort())
}
