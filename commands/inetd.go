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

package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/openpubkey/gopherd/config"
)

// InetdCmd prints the inetd.conf entry that runs gopherd with a given
// configuration, one process per connection.
type InetdCmd struct {
	Out io.Writer
	// Binary is the absolute path inetd executes.
	Binary string
	// RunAs is the account inetd starts gopherd as. Root is needed for a
	// real root change; the --user setting then drops privileges.
	RunAs  string
	Config config.Config
}

// NewInetdCmd creates a new InetdCmd with default settings
func NewInetdCmd(out io.Writer, binary string, cfg config.Config) *InetdCmd {
	return &InetdCmd{
		Out:    out,
		Binary: binary,
		RunAs:  "root",
		Config: cfg,
	}
}

// Run prints the entry.
// Returns exit code: 0 for success, 1 if the configuration cannot be written as an inetd.conf line
func (i *InetdCmd) Run() int {
	line, err := i.Line()
	if err != nil {
		fmt.Fprintf(i.Out, "ERROR: %v\n", err)
		return 1
	}
	fmt.Fprintln(i.Out, line)

	argv := append([]string{i.Binary}, ServeArgs(i.Config)...)
	fmt.Fprintf(i.Out, "# try it: printf '/\\r\\n' | %s\n", shellquote.Join(argv...))
	return 0
}

// Line returns the inetd.conf entry. inetd splits arguments on whitespace
// and has no quoting, so every word must come through shell quoting
// unchanged.
func (i *InetdCmd) Line() (string, error) {
	fields := []string{"gopher", "stream", "tcp", "nowait", i.RunAs, i.Binary, "gopherd"}
	fields = append(fields, ServeArgs(i.Config)...)

	for _, f := range fields {
		if f == "" || shellquote.Join(f) != f {
			return "", fmt.Errorf("%q cannot be written to inetd.conf", f)
		}
	}
	return strings.Join(fields, "\t"), nil
}

// ServeArgs returns the command-line flags that reproduce cfg, leaving out
// settings at their default.
func ServeArgs(cfg config.Config) []string {
	var args []string
	def := config.Default()

	if cfg.Root != "" {
		args = append(args, "-r", cfg.Root)
	}
	if cfg.User != "" {
		args = append(args, "-u", cfg.User)
	}
	if cfg.Banner != "" {
		args = append(args, "-b", cfg.Banner)
	}
	if cfg.Host != def.Host {
		args = append(args, "-s", cfg.Host)
	}
	if cfg.Port != def.Port {
		args = append(args, "-p", strconv.Itoa(cfg.Port))
	}
	if cfg.ShowHidden {
		args = append(args, "-a")
	}
	if cfg.HideSize {
		args = append(args, "-i")
	}
	if cfg.OnStatError != def.OnStatError {
		args = append(args, "--on-stat-error="+cfg.OnStatError.String())
	}
	if cfg.AlwaysSummarize {
		args = append(args, "--always-summarize")
	}
	if cfg.LogDir != "" {
		args = append(args, "--log-dir", cfg.LogDir)
	}
	if cfg.LogLevel != def.LogLevel {
		args = append(args, "--log-level="+cfg.LogLevel.String())
	}
	return args
}
