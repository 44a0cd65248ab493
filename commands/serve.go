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
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/openpubkey/gopherd/config"
	"github.com/openpubkey/gopherd/confine"
	"github.com/openpubkey/gopherd/files"
	"github.com/openpubkey/gopherd/gopher"
	"github.com/openpubkey/gopherd/menu"
	"go.uber.org/zap"
)

// MaxSelectorLength bounds the request line, line ending excluded.
const MaxSelectorLength = 4096

var (
	// ErrSelectorTooLong is returned by ReadSelector for an over-long line.
	ErrSelectorTooLong = errors.New("selector too long")

	errNotRegular = errors.New("not a regular file or directory")
)

// ServeCmd answers a single gopher request: it confines the process, reads
// the selector from In and writes a menu or a file to Out.
type ServeCmd struct {
	In       io.Reader
	Out      io.Writer
	Config   config.Config
	Resolver *confine.Resolver
	Log      *zap.Logger
}

// NewServeCmd creates a ServeCmd on the real filesystem. cfg must already be
// normalized.
func NewServeCmd(in io.Reader, out io.Writer, cfg config.Config, log *zap.Logger) *ServeCmd {
	if log == nil {
		log = zap.NewNop()
	}
	return &ServeCmd{
		In:       in,
		Out:      out,
		Config:   cfg,
		Resolver: confine.NewResolver(log),
		Log:      log,
	}
}

// Run serves the request.
// Returns exit code: 0 when a full response was sent, 1 otherwise
func (s *ServeCmd) Run() int {
	w := bufio.NewWriter(s.Out)
	enc := gopher.NewEncoder(w, s.Log)

	err := s.serve(w, enc)
	if err != nil {
		var fatal *gopher.Error
		if errors.As(err, &fatal) {
			s.Log.Error("request failed",
				zap.Stringer("kind", fatal.Kind),
				zap.String("op", fatal.Op),
				zap.Error(fatal.Err))
			if ferr := enc.Fail(fatal); ferr != nil {
				s.Log.Error("failed to send error to client", zap.Error(ferr))
			}
		} else {
			s.Log.Error("failed to write response", zap.Error(err))
		}
	}

	if ferr := w.Flush(); ferr != nil {
		s.Log.Error("failed to write response", zap.Error(ferr))
		return 1
	}
	if err != nil {
		return 1
	}
	return 0
}

func (s *ServeCmd) serve(w io.Writer, enc *gopher.Encoder) error {
	jail, err := s.Resolver.Confine(s.Config.Root, s.Config.User)
	if err != nil {
		return err
	}

	selector, err := ReadSelector(s.In)
	if err != nil {
		return gopher.FilesystemError("read", err)
	}

	resolved, err := jail.Resolve(selector)
	if err != nil {
		s.Log.Info("selector rejected", zap.String("selector", selector), zap.Error(err))
		return err
	}

	info, err := jail.Fs.Stat(resolved.Path)
	if err != nil {
		return gopher.FilesystemError("stat", err)
	}

	switch {
	case info.IsDir():
		lister := menu.NewLister(jail.Fs, enc, s.Config, s.Log)
		if err := lister.List(resolved); err != nil {
			return err
		}
		s.Log.Info("served menu",
			zap.String("selector", selector),
			zap.String("path", resolved.Path),
			zap.Int("records", enc.Records()),
			zap.Int("rejected", enc.Rejected()))
		return enc.End()

	case info.Mode().IsRegular():
		t := files.NewClassifier(jail.Fs, s.Log).Classify(files.Extension(resolved.Path), resolved.Path)
		n, err := files.Send(jail.Fs, resolved.Path, w)
		if err != nil {
			return err
		}
		s.Log.Info("served file",
			zap.String("selector", selector),
			zap.String("path", resolved.Path),
			zap.Stringer("type", t),
			zap.Int64("bytes", n))
		// Binary files are sent bare; anything else is ended like a menu.
		if t == gopher.TypeBinary {
			return nil
		}
		return enc.End()

	default:
		return gopher.FilesystemError("open", errNotRegular)
	}
}

// ReadSelector reads the request line from r. The selector ends at the
// first CR or LF; end of input without a line ending ends it too, so an
// empty request is the empty selector.
func ReadSelector(r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, MaxSelectorLength+len("\r\n"))
	line, err := br.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return "", ErrSelectorTooLong
	case err != nil && err != io.EOF:
		return "", err
	}

	if i := bytes.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	if len(line) > MaxSelectorLength {
		return "", ErrSelectorTooLong
	}
	return string(line), nil
}
