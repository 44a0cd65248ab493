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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/openpubkey/gopherd/config"
	"github.com/openpubkey/gopherd/confine"
	"github.com/spf13/afero"
)

// CheckStatus is the outcome of a single configuration check
type CheckStatus string

const (
	StatusSuccess CheckStatus = "SUCCESS"
	StatusWarning CheckStatus = "WARNING"
	StatusError   CheckStatus = "ERROR"
)

// CheckResult records the outcome of checking one setting
type CheckResult struct {
	Status CheckStatus
	// Setting names what was checked, e.g. root or user
	Setting string
	Value   string
	Reason  string
}

// CheckSummary holds aggregated statistics about check results
type CheckSummary struct {
	TotalTested int
	Successful  int
	Warnings    int
	Errors      int
}

// HasErrors returns true if there are any errors or warnings
func (s *CheckSummary) HasErrors() bool {
	return s.Errors > 0 || s.Warnings > 0
}

// GetExitCode returns the appropriate exit code (0 for success, 1 for errors/warnings)
func (s *CheckSummary) GetExitCode() int {
	if s.HasErrors() {
		return 1
	}
	return 0
}

// CalculateSummary calculates summary statistics from a list of check results
func CalculateSummary(results []CheckResult) CheckSummary {
	summary := CheckSummary{
		TotalTested: len(results),
	}

	for _, result := range results {
		switch result.Status {
		case StatusSuccess:
			summary.Successful++
		case StatusWarning:
			summary.Warnings++
		case StatusError:
			summary.Errors++
		}
	}

	return summary
}

// ModeWritableByOthers are the permission bits that let someone other than
// the owner change the served tree.
const ModeWritableByOthers = fs.FileMode(0o022)

// CheckCmd audits a gopherd configuration without serving anything
type CheckCmd struct {
	Fs      afero.Fs
	Out     io.Writer
	Users   confine.UserLookup
	Sandbox confine.Sandbox
	Config  config.Config
}

// NewCheckCmd creates a new CheckCmd with default settings
func NewCheckCmd(out io.Writer, cfg config.Config) *CheckCmd {
	return &CheckCmd{
		Fs:      afero.NewOsFs(),
		Out:     out,
		Users:   confine.OsUserLookup{},
		Sandbox: confine.DefaultSandbox(),
		Config:  cfg,
	}
}

// Run executes the check command
// Returns exit code: 0 for success, 1 for warnings/errors
func (c *CheckCmd) Run() int {
	results := c.Check()

	fmt.Fprintf(c.Out, "Checking gopherd configuration...\n\n")
	for _, result := range results {
		c.printResult(result)
	}

	summary := CalculateSummary(results)
	c.printSummary(summary)
	return summary.GetExitCode()
}

// Check runs every check and returns the results in a fixed order. The
// root-mode check is only run when the root is an existing directory, and
// looks at the canonical root.
func (c *CheckCmd) Check() []CheckResult {
	root, canonical := c.checkRoot()
	results := []CheckResult{root}
	if canonical != "" {
		results = append(results, c.checkRootMode(canonical))
	}
	return append(results,
		c.checkConfinement(),
		c.checkUser(),
		c.checkBanner(),
		c.checkHost(),
		c.checkPort(),
		c.checkLogDir(),
	)
}

// checkRoot also returns the canonical root when it is a usable directory.
func (c *CheckCmd) checkRoot() (CheckResult, string) {
	result := CheckResult{Setting: "root", Value: c.Config.Root}
	if c.Config.Root == "" {
		result.Status = StatusWarning
		result.Reason = "no root configured, the whole filesystem is served"
		return result, ""
	}

	root, err := filepath.Abs(c.Config.Root)
	if err != nil {
		return failed(result, err), ""
	}
	canonical, err := confine.Canonicalize(c.Fs, root)
	if err != nil {
		return failed(result, err), ""
	}
	info, err := c.Fs.Stat(canonical)
	if err != nil {
		return failed(result, err), ""
	}
	if !info.IsDir() {
		return failed(result, errors.New("not a directory")), ""
	}

	result.Status = StatusSuccess
	if canonical != c.Config.Root {
		result.Reason = "resolves to " + canonical
	}
	return result, canonical
}

// checkRootMode warns when users other than the owner can add files to the
// served tree, since anything placed there is published.
func (c *CheckCmd) checkRootMode(root string) CheckResult {
	result := CheckResult{Setting: "root-mode", Value: root}
	info, err := c.Fs.Stat(root)
	if err != nil {
		return failed(result, err)
	}

	mode := info.Mode().Perm()
	result.Value = fmt.Sprintf("%04o", mode)
	if mode&ModeWritableByOthers != 0 {
		result.Status = StatusWarning
		result.Reason = "writable by group or others"
		return result
	}
	result.Status = StatusSuccess
	return result
}

func (c *CheckCmd) checkConfinement() CheckResult {
	result := CheckResult{Setting: "chroot"}
	switch {
	case c.Config.Root == "":
		result.Status = StatusSuccess
		result.Reason = "not needed without a root"
	case c.Sandbox.CanChroot():
		result.Status = StatusSuccess
		result.Value = c.Config.Root
		result.Reason = "root directory will be changed"
	default:
		result.Status = StatusWarning
		result.Value = c.Config.Root
		result.Reason = "not privileged, root is emulated by prefixing selectors"
	}
	return result
}

func (c *CheckCmd) checkUser() CheckResult {
	result := CheckResult{Setting: "user", Value: c.Config.User}
	if c.Config.User == "" {
		if c.Sandbox.CanChroot() {
			result.Status = StatusWarning
			result.Reason = "running privileged without a user to drop to"
			return result
		}
		result.Status = StatusSuccess
		result.Reason = "runs as the invoking user"
		return result
	}

	u, err := c.Users.Lookup(c.Config.User)
	if err != nil {
		return failed(result, err)
	}
	result.Status = StatusSuccess
	result.Reason = fmt.Sprintf("uid %s, gid %s", u.Uid, u.Gid)
	return result
}

func (c *CheckCmd) checkBanner() CheckResult {
	result := CheckResult{Setting: "banner", Value: c.Config.Banner}
	if err := config.ValidateBanner(c.Config.Banner); err != nil {
		return failed(result, err)
	}

	result.Status = StatusSuccess
	switch {
	case c.Config.Banner == "":
		result.Reason = "disabled"
	case c.Config.Root != "":
		exists, err := afero.Exists(c.Fs, filepath.Join(c.Config.Root, c.Config.Banner))
		if err == nil && exists {
			result.Reason = "present in root"
		} else {
			result.Reason = "not present in root"
		}
	}
	return result
}

func (c *CheckCmd) checkHost() CheckResult {
	result := CheckResult{Setting: "host", Value: c.Config.Host}
	host, err := config.NormalizeHost(c.Config.Host)
	if err != nil {
		return failed(result, err)
	}
	result.Status = StatusSuccess
	if host != c.Config.Host {
		result.Reason = "sent as " + host
	}
	return result
}

func (c *CheckCmd) checkPort() CheckResult {
	result := CheckResult{Setting: "port", Value: fmt.Sprint(c.Config.Port)}
	if err := config.ValidatePort(c.Config.Port); err != nil {
		return failed(result, err)
	}
	result.Status = StatusSuccess
	return result
}

func (c *CheckCmd) checkLogDir() CheckResult {
	result := CheckResult{Setting: "log-dir", Value: c.Config.LogDir}
	if c.Config.LogDir == "" {
		result.Status = StatusSuccess
		result.Reason = "logging disabled"
		return result
	}

	info, err := c.Fs.Stat(c.Config.LogDir)
	if err != nil {
		return failed(result, err)
	}
	if !info.IsDir() {
		return failed(result, errors.New("not a directory"))
	}
	result.Status = StatusSuccess
	return result
}

func failed(result CheckResult, err error) CheckResult {
	result.Status = StatusError
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	result.Reason = err.Error()
	return result
}

// printResult prints a single check result
func (c *CheckCmd) printResult(result CheckResult) {
	var statusBadge string
	switch result.Status {
	case StatusSuccess:
		statusBadge = "[OK]"
	case StatusWarning:
		statusBadge = "[WARN]"
	case StatusError:
		statusBadge = "[ERR]"
	}

	statusStr := fmt.Sprintf("%-8s", string(result.Status))
	fmt.Fprintf(c.Out, "%-6s %-8s: %-8s %s", statusBadge, statusStr, result.Setting, result.Value)

	if result.Reason != "" {
		fmt.Fprintf(c.Out, " (%s)", result.Reason)
	}

	fmt.Fprintf(c.Out, "\n")
}

// printSummary prints the check summary
func (c *CheckCmd) printSummary(summary CheckSummary) {
	fmt.Fprintf(c.Out, "\n=== SUMMARY ===\n")
	fmt.Fprintf(c.Out, "Total Settings Checked: %d\n", summary.TotalTested)
	fmt.Fprintf(c.Out, "Successful:             %d\n", summary.Successful)
	fmt.Fprintf(c.Out, "Warnings:               %d\n", summary.Warnings)
	fmt.Fprintf(c.Out, "Errors:                 %d\n", summary.Errors)
	fmt.Fprintf(c.Out, "\nExit Code: %d", summary.GetExitCode())
	if summary.GetExitCode() == 0 {
		fmt.Fprintf(c.Out, " (no issues detected)\n")
	} else if summary.Errors > 0 {
		fmt.Fprintf(c.Out, " (errors detected)\n")
	} else {
		fmt.Fprintf(c.Out, " (warnings detected)\n")
	}
}
