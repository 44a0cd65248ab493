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
	"fmt"
	"os"

	"github.com/openpubkey/gopherd/commands"
	"github.com/openpubkey/gopherd/config"
	"github.com/openpubkey/gopherd/gopher"
	"github.com/openpubkey/gopherd/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	// These can be overridden at build time using ldflags. For example:
	// go build -v -o /usr/local/sbin/gopherd -ldflags "-X main.Version=1.0.0"
	Version = "unversioned"
)

func main() {
	opts := &rootOptions{cfg: config.Default()}
	rootCmd := newRootCmd(opts)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(opts.exitCode)
}

// rootOptions receives the parsed flags and the exit code of the command
// that ran.
type rootOptions struct {
	cfg        config.Config
	configPath string
	runAs      string
	exitCode   int
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gopherd",
		Short: "Answer one gopher request on stdin/stdout, as started by inetd",
		Long: `gopherd serves a single gopher request per invocation. inetd (or any
similar supervisor) connects the client socket to stdin and stdout; gopherd
reads the selector, confines itself to the root directory and writes a menu
or the requested file.

	gopher stream tcp nowait root /usr/local/sbin/gopherd gopherd -r /srv/gopher -u nobody`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.exitCode = serve(cmd, opts.cfg, opts.configPath)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.cfg.Root, "root", "r", opts.cfg.Root, "Directory to serve; the process is confined to it")
	flags.StringVarP(&opts.cfg.User, "user", "u", opts.cfg.User, "User to drop privileges to")
	flags.StringVarP(&opts.cfg.Banner, "banner", "b", opts.cfg.Banner, "Name of the per-directory banner file")
	flags.StringVarP(&opts.cfg.Host, "server", "s", opts.cfg.Host, "Host name written into menu records")
	flags.IntVarP(&opts.cfg.Port, "port", "p", opts.cfg.Port, "Port written into menu records")
	flags.BoolVarP(&opts.cfg.ShowHidden, "show-hidden", "a", opts.cfg.ShowHidden, "List dotfiles")
	flags.BoolVarP(&opts.cfg.HideSize, "hide-size", "i", opts.cfg.HideSize, "Leave file sizes out of menus")
	flags.Var(
		enumflag.New(&opts.cfg.OnStatError, "policy", config.StatErrorPolicyIds, enumflag.EnumCaseInsensitive),
		"on-stat-error", "What an unreadable directory entry does to a listing: abort or skip")
	flags.BoolVar(&opts.cfg.AlwaysSummarize, "always-summarize", opts.cfg.AlwaysSummarize, "Show the item count even without a banner")
	flags.StringVar(&opts.cfg.LogDir, "log-dir", opts.cfg.LogDir, "Directory for gopherd.log; logging is off without it")
	flags.Var(
		enumflag.New(&opts.cfg.LogLevel, "level", config.LogLevelIds, enumflag.EnumCaseInsensitive),
		"log-level", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file; flags given on the command line take precedence")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check the configuration without serving a request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mergeConfig(cmd, opts.cfg, opts.configPath)
			if err != nil {
				return err
			}
			opts.exitCode = commands.NewCheckCmd(cmd.OutOrStdout(), cfg).Run()
			return nil
		},
	}

	inetdCmd := &cobra.Command{
		Use:   "inetd",
		Short: "Print an inetd.conf entry for the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mergeConfig(cmd, opts.cfg, opts.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Normalize(); err != nil {
				return err
			}
			binary, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to find gopherd executable: %w", err)
			}
			inetd := commands.NewInetdCmd(cmd.OutOrStdout(), binary, cfg)
			inetd.RunAs = opts.runAs
			opts.exitCode = inetd.Run()
			return nil
		},
	}
	inetdCmd.Flags().StringVar(&opts.runAs, "run-as", "root", "Account inetd starts gopherd as")

	typesCmd := &cobra.Command{
		Use:   "types",
		Short: "Print the file extensions gopherd recognizes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			opts.exitCode = commands.NewTypesCmd(cmd.OutOrStdout()).Run()
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gopherd %s\n", Version)
		},
	}

	rootCmd.AddCommand(checkCmd, inetdCmd, typesCmd, versionCmd)
	return rootCmd
}

// serve answers the request on stdin. Configuration problems are reported
// to the client like any other fatal error, since stderr is usually the
// same socket.
func serve(cmd *cobra.Command, flagCfg config.Config, configPath string) int {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "gopherd: reading a selector from the terminal; gopherd is normally started by inetd")
	}

	cfg, err := mergeConfig(cmd, flagCfg, configPath)
	if err == nil {
		err = cfg.Normalize()
	}
	if err != nil {
		return failConfig(err)
	}

	// The log file has to be opened before the root directory changes.
	log, closeLog, err := logging.Open(afero.NewOsFs(), cfg.LogDir, cfg.LogLevel.ZapLevel())
	if err != nil {
		return failConfig(err)
	}
	defer func() { _ = closeLog() }()

	log.Debug("starting", zap.String("version", Version), zap.Any("config", cfg))
	return commands.NewServeCmd(os.Stdin, os.Stdout, cfg, log).Run()
}

func failConfig(err error) int {
	enc := gopher.NewEncoder(os.Stdout, nil)
	_ = enc.Fail(gopher.ConfigurationError("config", err))
	return 1
}

// mergeConfig layers the flags set on the command line over the config file,
// if there is one.
func mergeConfig(cmd *cobra.Command, flagCfg config.Config, configPath string) (config.Config, error) {
	if configPath == "" {
		return flagCfg, nil
	}

	loaded, err := config.Load(afero.NewOsFs(), configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg := *loaded

	flags := cmd.Flags()
	overrides := map[string]func(){
		"root":             func() { cfg.Root = flagCfg.Root },
		"user":             func() { cfg.User = flagCfg.User },
		"banner":           func() { cfg.Banner = flagCfg.Banner },
		"server":           func() { cfg.Host = flagCfg.Host },
		"port":             func() { cfg.Port = flagCfg.Port },
		"show-hidden":      func() { cfg.ShowHidden = flagCfg.ShowHidden },
		"hide-size":        func() { cfg.HideSize = flagCfg.HideSize },
		"on-stat-error":    func() { cfg.OnStatError = flagCfg.OnStatError },
		"always-summarize": func() { cfg.AlwaysSummarize = flagCfg.AlwaysSummarize },
		"log-dir":          func() { cfg.LogDir = flagCfg.LogDir },
		"log-level":        func() { cfg.LogLevel = flagCfg.LogLevel },
	}
	for name, apply := range overrides {
		if flags.Changed(name) {
			apply()
		}
	}
	return cfg, nil
}
