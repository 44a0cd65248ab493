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

// Package logging builds the structured logger for a gopherd invocation.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the log file created inside the configured log directory.
const FileName = "gopherd.log"

// New returns a JSON logger writing to w at level.
func New(w io.Writer, level zapcore.Level) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core, zap.Fields(zap.Int("pid", os.Getpid())))
}

// Open appends to <dir>/gopherd.log. It has to run before any root change,
// after which dir may no longer be reachable. An empty dir gives a no-op
// logger. The returned close function flushes and closes the file.
func Open(fs afero.Fs, dir string, level zapcore.Level) (*zap.Logger, func() error, error) {
	if dir == "" {
		return zap.NewNop(), func() error { return nil }, nil
	}

	logFile, err := fs.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o640)
	if err != nil {
		return nil, nil, err
	}

	log := New(logFile, level)
	closeFn := func() error {
		_ = log.Sync()
		return logFile.Close()
	}
	return log, closeFn, nil
}
