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

package confine

import (
	"io/fs"
	"path"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

// maxSymlinks bounds symlink expansion during Canonicalize, as the kernel does.
const maxSymlinks = 40

// Canonicalize resolves the absolute slash-separated path p against fsys the
// way realpath(3) does: symlinks are expanded as they are met and ".." is
// applied to the already-resolved prefix. The result is absolute and clean,
// and every component of it exists.
//
// Symlinks are only followed when fsys implements afero.Lstater and
// afero.LinkReader (afero.OsFs does); otherwise components are checked with
// Stat and ".." is purely lexical.
func Canonicalize(fsys afero.Fs, p string) (string, error) {
	if !path.IsAbs(p) {
		p = "/" + p
	}

	resolved := "/"
	pending := splitPath(p)
	links := 0

	for len(pending) > 0 {
		comp := pending[0]
		pending = pending[1:]

		switch comp {
		case ".":
			continue
		case "..":
			resolved = path.Dir(resolved)
			continue
		}

		next := path.Join(resolved, comp)
		info, err := lstat(fsys, next)
		if err != nil {
			return "", err
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			links++
			if links > maxSymlinks {
				return "", &fs.PathError{Op: "realpath", Path: p, Err: syscall.ELOOP}
			}
			target, err := readlink(fsys, next)
			if err != nil {
				return "", err
			}
			if path.IsAbs(target) {
				resolved = "/"
			}
			pending = append(splitPath(target), pending...)
			continue
		}

		if len(pending) > 0 && !info.IsDir() {
			return "", &fs.PathError{Op: "realpath", Path: next, Err: syscall.ENOTDIR}
		}
		resolved = next
	}

	return resolved, nil
}

// Within reports whether p is root or lies beneath it. Both must be clean
// absolute paths. The check is on path segments, so "/srv/ab" is not within
// "/srv/a".
func Within(root, p string) bool {
	if root == "/" {
		return strings.HasPrefix(p, "/")
	}
	return p == root || strings.HasPrefix(p, root+"/")
}

func splitPath(p string) []string {
	var comps []string
	for _, c := range strings.Split(p, "/") {
		if c != "" {
			comps = append(comps, c)
		}
	}
	return comps
}

func lstat(fsys afero.Fs, name string) (fs.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return fsys.Stat(name)
}

func readlink(fsys afero.Fs, name string) (string, error) {
	if r, ok := fsys.(afero.LinkReader); ok {
		return r.ReadlinkIfPossible(name)
	}
	return "", &fs.PathError{Op: "readlink", Path: name, Err: afero.ErrNoReadlink}
}
