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
	"fmt"
	"strings"

	"github.com/thediveo/enumflag/v2"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// StatErrorPolicy decides what a failed stat of one directory entry does to
// the listing.
type StatErrorPolicy enumflag.Flag

const (
	// StatErrorAbort fails the whole listing.
	StatErrorAbort StatErrorPolicy = iota
	// StatErrorSkip leaves the entry out and carries on.
	StatErrorSkip
)

var StatErrorPolicyIds = map[StatErrorPolicy][]string{
	StatErrorAbort: {"abort"},
	StatErrorSkip:  {"skip"},
}

func (p StatErrorPolicy) String() string {
	return StatErrorPolicyIds[p][0]
}

func (p *StatErrorPolicy) UnmarshalYAML(value *yaml.Node) error {
	return unmarshalEnum(value, "on_stat_error", StatErrorPolicyIds, p)
}

// LogLevel is the minimum severity written to the log file.
type LogLevel enumflag.Flag

const (
	LogLevelInfo LogLevel = iota
	LogLevelDebug
	LogLevelWarn
	LogLevelError
)

var LogLevelIds = map[LogLevel][]string{
	LogLevelInfo:  {"info"},
	LogLevelDebug: {"debug"},
	LogLevelWarn:  {"warn", "warning"},
	LogLevelError: {"error"},
}

func (l LogLevel) String() string {
	return LogLevelIds[l][0]
}

// ZapLevel converts l for zap.
func (l LogLevel) ZapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *LogLevel) UnmarshalYAML(value *yaml.Node) error {
	return unmarshalEnum(value, "log_level", LogLevelIds, l)
}

// unmarshalEnum looks value up in ids case-insensitively, using the same
// tables as the command-line flags.
func unmarshalEnum[T comparable](value *yaml.Node, field string, ids map[T][]string, out *T) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	for v, names := range ids {
		for _, name := range names {
			if strings.EqualFold(name, strings.TrimSpace(s)) {
				*out = v
				return nil
			}
		}
	}
	return fmt.Errorf("invalid %s %q", field, s)
}
