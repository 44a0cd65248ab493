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

package menu

import (
	"io/fs"
	"strings"

	"github.com/openpubkey/gopherd/config"
	"github.com/openpubkey/gopherd/confine"
	"github.com/openpubkey/gopherd/files"
	"github.com/openpubkey/gopherd/gopher"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Lister writes the menu for a directory.
type Lister struct {
	Fs         afero.Fs
	Encoder    *gopher.Encoder
	Classifier *files.Classifier
	// Banner is consulted only when Config names a banner file.
	Banner *Banner
	Config config.Config
	Log    *zap.Logger
}

// NewLister wires a Lister and its Banner to fsys and enc.
func NewLister(fsys afero.Fs, enc *gopher.Encoder, cfg config.Config, log *zap.Logger) *Lister {
	if log == nil {
		log = zap.NewNop()
	}
	return &Lister{
		Fs:         fsys,
		Encoder:    enc,
		Classifier: files.NewClassifier(fsys, log),
		Banner:     NewBanner(fsys, enc, cfg.Banner, log),
		Config:     cfg,
		Log:        log,
	}
}

// List emits the banner of dir, one record per visible entry and, when
// configured, a summary line. Entries come in the order the filesystem
// returns them, minus symlinks leading out of the root. The terminator is
// left to the caller.
func (l *Lister) List(dir confine.ResolvedPath) error {
	d, err := l.Fs.Open(dir.Path)
	if err != nil {
		return gopher.FilesystemError("opendir", err)
	}
	defer d.Close()

	if l.Config.BannerEnabled() {
		if err := l.Banner.Render(dir); err != nil {
			return err
		}
	}

	names, err := d.Readdirnames(-1)
	if err != nil {
		return gopher.FilesystemError("readdir", err)
	}

	count := 0
	for _, name := range names {
		if !l.visible(name) {
			continue
		}

		child := dir.Child(name)
		target, err := dir.Contain(l.Fs, child)
		if kind, ok := gopher.KindOf(err); ok && kind == gopher.KindConfinement {
			l.Log.Warn("omitting entry leading out of the root", zap.String("path", child))
			continue
		}
		var info fs.FileInfo
		if err == nil {
			info, err = l.Fs.Stat(target)
		}
		if err != nil {
			if l.Config.OnStatError == config.StatErrorSkip {
				l.Log.Warn("skipping entry that cannot be stat'ed", zap.String("path", child), zap.Error(err))
				continue
			}
			return gopher.FilesystemError("stat", err)
		}

		switch mode := info.Mode(); {
		case mode.IsDir():
			err = l.Encoder.Item(gopher.TypeDirectory, dir.Strip(child), l.Config.Host, l.Config.Port, "%s", name)
		case mode.IsRegular():
			t := l.Classifier.Classify(files.Extension(name), target)
			if l.Config.HideSize {
				err = l.Encoder.Item(t, dir.Strip(child), l.Config.Host, l.Config.Port, "%s", name)
			} else {
				err = l.Encoder.Item(t, dir.Strip(child), l.Config.Host, l.Config.Port, "%s - %s", name, files.HumanSize(info.Size()))
			}
		default:
			l.Log.Debug("omitting special file", zap.String("path", child), zap.Stringer("mode", mode))
			continue
		}
		if err != nil {
			return err
		}
		count++
	}

	l.Log.Debug("listed directory",
		zap.String("path", dir.Path),
		zap.Int("entries", len(names)),
		zap.Int("items", count))

	if count > 0 && (l.Config.BannerEnabled() || l.Config.AlwaysSummarize) {
		if err := l.Encoder.Info(""); err != nil {
			return err
		}
		return l.Encoder.Info("%d item%s total", count, plural(count))
	}
	return nil
}

func (l *Lister) visible(name string) bool {
	switch {
	case name == "." || name == "..":
		return false
	case strings.HasPrefix(name, ".") && !l.Config.ShowHidden:
		return false
	case l.Config.BannerEnabled() && name == l.Config.Banner:
		return false
	}
	return true
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
