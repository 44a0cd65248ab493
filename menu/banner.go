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

// Package menu builds directory menus: the optional banner and the listing
// of entries below it.
package menu

import (
	"errors"
	"io"
	"io/fs"
	"strings"

	"github.com/openpubkey/gopherd/confine"
	"github.com/openpubkey/gopherd/gopher"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Banner renders the per-directory banner file. Plain lines become info
// records and lines holding a URL become links.
type Banner struct {
	Fs         afero.Fs
	Encoder    *gopher.Encoder
	PortLookup PortLookup
	// Name is the banner filename looked up in every listed directory.
	Name string
	Log  *zap.Logger
}

// NewBanner returns a Banner reading name through fsys.
func NewBanner(fsys afero.Fs, enc *gopher.Encoder, name string, log *zap.Logger) *Banner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Banner{
		Fs:         fsys,
		Encoder:    enc,
		PortLookup: LookupServicePort,
		Name:       name,
		Log:        log,
	}
}

// Render emits the banner of dir followed by a blank info record. A
// directory without a banner file emits nothing, and so does one whose
// banner is a symlink leading out of the root.
func (b *Banner) Render(dir confine.ResolvedPath) error {
	path, err := dir.Contain(b.Fs, dir.Child(b.Name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if kind, ok := gopher.KindOf(err); ok && kind == gopher.KindConfinement {
			b.Log.Warn("ignoring banner outside the root", zap.String("path", dir.Child(b.Name)))
			return nil
		}
		return gopher.FilesystemError("open", err)
	}

	file, err := b.Fs.Open(path)
	if err != nil {
		return gopher.FilesystemError("open", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return gopher.FilesystemError("read", err)
	}
	b.Log.Debug("rendering banner", zap.String("path", path), zap.Int("bytes", len(content)))

	rest := string(content)
	for rest != "" {
		var line string
		line, rest, _ = strings.Cut(rest, "\n")
		if err := b.line(strings.TrimSuffix(line, "\r")); err != nil {
			return err
		}
	}
	return b.Encoder.Info("")
}

func (b *Banner) line(line string) error {
	if !strings.Contains(line, schemeSeparator) {
		return b.Encoder.Info("%s", line)
	}

	decoded := Unescape(line)
	link, err := ParseLink(decoded, b.PortLookup)
	if err != nil {
		b.Log.Debug("banner line shown as text", zap.String("line", decoded), zap.Error(err))
		return b.Encoder.Info("%s", decoded)
	}

	t, ok := link.Type()
	if !ok {
		return b.Encoder.Info("%s", decoded)
	}
	return b.Encoder.Item(t, link.Selector(), link.Host, link.Port, "%s", link)
}
