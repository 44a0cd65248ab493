//go:build linux || darwin

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
	"os"
	"path/filepath"
	"testing"

	"github.com/openpubkey/gopherd/gopher"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeSymlinks(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	root := filepath.Join(base, "root")
	outside := filepath.Join(base, "outside")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0755))
	require.NoError(t, os.MkdirAll(outside, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("s"), 0644))

	require.NoError(t, os.Symlink("docs", filepath.Join(root, "alias")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))
	require.NoError(t, os.Symlink("../docs/a.txt", filepath.Join(root, "docs", "up")))
	require.NoError(t, os.Symlink("loop2", filepath.Join(root, "loop1")))
	require.NoError(t, os.Symlink("loop1", filepath.Join(root, "loop2")))

	osFs := afero.NewOsFs()
	canonicalRoot, err := Canonicalize(osFs, root)
	require.NoError(t, err)

	realRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	require.Equal(t, realRoot, canonicalRoot)

	p, err := Canonicalize(osFs, root+"/alias/a.txt")
	require.NoError(t, err)
	require.Equal(t, canonicalRoot+"/docs/a.txt", p)

	// ".." after a symlink applies to the link target, not the link name.
	p, err = Canonicalize(osFs, root+"/docs/up")
	require.NoError(t, err)
	require.Equal(t, canonicalRoot+"/docs/a.txt", p)

	p, err = Canonicalize(osFs, root+"/alias/..")
	require.NoError(t, err)
	require.Equal(t, canonicalRoot, p)

	_, err = Canonicalize(osFs, root+"/loop1")
	require.ErrorContains(t, err, "too many levels of symbolic links")

	r := &Resolver{Fs: osFs, Users: &MockUserLookup{}, Sandbox: &mockSandbox{}}
	jail, err := r.Confine(root, "")
	require.NoError(t, err)

	resolved, err := jail.Resolve("/alias/a.txt")
	require.NoError(t, err)
	require.Equal(t, "/docs/a.txt", resolved.Strip(resolved.Path))

	_, err = jail.Resolve("/escape/secret.txt")
	require.Error(t, err)
	kind, ok := gopher.KindOf(err)
	require.True(t, ok)
	require.Equal(t, gopher.KindConfinement, kind)
}
