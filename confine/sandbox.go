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

import "github.com/spf13/afero"

// Sandbox performs the process-wide privilege operations of Confine.
type Sandbox interface {
	// CanChroot reports whether the process may change its root directory.
	CanChroot() bool
	// Chroot makes dir the process root and returns the filesystem to use
	// from then on.
	Chroot(fs afero.Fs, dir string) (afero.Fs, error)
	Setgroups(gids []int) error
	Setgid(gid int) error
	Setuid(uid int) error
}
