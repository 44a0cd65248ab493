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

// Package config holds the settings of a gopherd invocation.
package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/openpubkey/gopherd/gopher"
	"github.com/spf13/afero"
	"golang.org/x/net/idna"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHost = "localhost"
	// FallbackPort is used when the services database has no gopher entry.
	FallbackPort = 70
)

// Config is built once per invocation and treated as read-only afterwards.
type Config struct {
	// Root confines every selector. Empty means the whole filesystem.
	Root string `yaml:"root"`
	// User is the account to drop privileges to. Empty keeps the current one.
	User string `yaml:"user"`
	// Banner names the per-directory file shown above each listing.
	Banner string `yaml:"banner"`
	// Host and Port are written into menu records for the client to follow.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	ShowHidden bool `yaml:"show_hidden"`
	HideSize   bool `yaml:"hide_size"`

	OnStatError StatErrorPolicy `yaml:"on_stat_error"`
	// AlwaysSummarize emits the "N items total" trailer even without a
	// configured banner.
	AlwaysSummarize bool `yaml:"always_summarize"`

	// LogDir receives gopherd.log. Empty disables logging, since under inetd
	// stderr is the client connection.
	LogDir   string   `yaml:"log_dir"`
	LogLevel LogLevel `yaml:"log_level"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Host:        DefaultHost,
		Port:        DefaultPort(),
		OnStatError: StatErrorAbort,
		LogLevel:    LogLevelInfo,
	}
}

// DefaultPort returns the gopher port from the services database.
func DefaultPort() int {
	port, err := net.LookupPort("tcp", "gopher")
	if err != nil || port == 0 {
		return FallbackPort
	}
	return port
}

// NewConfig parses YAML on top of Default.
func NewConfig(content []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(content, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and parses the YAML file at path.
func Load(fs afero.Fs, path string) (*Config, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	c, err := NewConfig(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return c, nil
}

// Normalize validates c and rewrites it into canonical form: an absolute
// root, an ASCII host.
func (c *Config) Normalize() error {
	if c.Root != "" {
		abs, err := filepath.Abs(c.Root)
		if err != nil {
			return fmt.Errorf("invalid root %q: %w", c.Root, err)
		}
		c.Root = abs
	}

	if err := ValidateBanner(c.Banner); err != nil {
		return err
	}

	host, err := NormalizeHost(c.Host)
	if err != nil {
		return err
	}
	c.Host = host

	return ValidatePort(c.Port)
}

// ValidateBanner rejects banner names that are not a plain filename. The
// empty name disables banners and is valid.
func ValidateBanner(name string) error {
	if name == "" {
		return nil
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("banner must be a plain filename, got %q", name)
	}
	return nil
}

// NormalizeHost checks that host can be written into a menu record and
// converts internationalized names to their ASCII form.
func NormalizeHost(host string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("host must not be empty")
	}
	if err := gopher.Validate(host); err != nil {
		return "", fmt.Errorf("invalid host %q: %w", host, err)
	}
	ascii, err := idna.Punycode.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", host, err)
	}
	return ascii, nil
}

// ValidatePort checks that port is a usable TCP port.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", port)
	}
	return nil
}

// BannerEnabled reports whether a banner filename is configured.
func (c Config) BannerEnabled() bool {
	return c.Banner != ""
}
