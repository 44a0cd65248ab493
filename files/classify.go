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

// Package files classifies served files and transmits their contents.
package files

import (
	"path/filepath"
	"strings"

	"github.com/openpubkey/gopherd/gopher"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ExtensionTypes maps lowercase file extensions (without the dot) to the item
// type they are served as. Anything else is sniffed.
var ExtensionTypes = map[string]gopher.ItemType{
	"txt":  gopher.TypeText,
	"png":  gopher.TypeImage,
	"jpg":  gopher.TypeImage,
	"jpeg": gopher.TypeImage,
	"bmp":  gopher.TypeImage,
	"gif":  gopher.TypeGIF,
	"wav":  gopher.TypeAudio,
	"ogg":  gopher.TypeAudio,
	"mp3":  gopher.TypeAudio,
	"hqx":  gopher.TypeBinHex,
	"hcx":  gopher.TypeBinHex,
}

// Classifier decides the item type of a file.
type Classifier struct {
	Sniffer Sniffer
	Log     *zap.Logger
}

// NewClassifier returns a Classifier sniffing file contents through fs.
func NewClassifier(fs afero.Fs, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{Sniffer: NewMimeSniffer(fs), Log: log}
}

// Extension returns the extension of the last path element without its dot,
// or "" if there is none.
func Extension(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}

// Classify returns the item type for the file at path. ext is matched first,
// case-insensitively; an empty or unknown ext falls back to sniffing the
// contents. A sniffing failure yields TypeBinary and is never an error.
func (c *Classifier) Classify(ext string, path string) gopher.ItemType {
	if ext != "" {
		if t, ok := ExtensionTypes[strings.ToLower(ext)]; ok {
			return t
		}
	}

	if c.Sniffer == nil {
		return gopher.TypeBinary
	}
	mime, err := c.Sniffer.Sniff(path)
	if err != nil {
		c.Log.Debug("content sniffing failed, serving as binary", zap.String("path", path), zap.Error(err))
		return gopher.TypeBinary
	}

	switch {
	case strings.HasPrefix(mime, "text/html"):
		return gopher.TypeHTML
	case strings.HasPrefix(mime, "text/"):
		return gopher.TypeText
	default:
		return gopher.TypeBinary
	}
}
