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

// Package confine maps untrusted selectors onto the filesystem without
// letting them escape the configured root.
package confine

import (
	"fmt"
	"os/user"
	"strconv"
	"strings"
	"syscall"

	"github.com/openpubkey/gopherd/gopher"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// UserLookup finds an account in the user database.
type UserLookup interface {
	Lookup(username string) (*user.User, error)
}

// OsUserLookup implements UserLookup with os/user.
type OsUserLookup struct{}

func (OsUserLookup) Lookup(username string) (*user.User, error) {
	return user.Lookup(username)
}

// Resolver sets up confinement for a single request. It holds the
// filesystem as seen before any root change.
type Resolver struct {
	Fs      afero.Fs
	Users   UserLookup
	Sandbox Sandbox
	Log     *zap.Logger
}

// NewResolver returns a Resolver for the real filesystem and user database.
func NewResolver(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		Fs:      afero.NewOsFs(),
		Users:   OsUserLookup{},
		Sandbox: DefaultSandbox(),
		Log:     log,
	}
}

// Jail is the confinement in force once Confine has returned. Its Fs must be
// used for every later filesystem access.
type Jail struct {
	Fs afero.Fs
	// Root is the canonical confinement root as seen through Fs. It is "/"
	// after a real root change or when no root was configured.
	Root string
	// RootPrefixed is true when confinement is emulated by prefixing
	// selectors with Root rather than by changing the process root.
	RootPrefixed bool
}

// ResolvedPath is a canonical path known to lie within the jail root.
type ResolvedPath struct {
	Path         string
	RootPrefixed bool
	Root         string
}

// Confine performs the privileged part of request setup, in this order:
// look up runAs (the user database may be unreachable after a root change),
// change root to root if privileged, drop to runAs. Without the privilege to
// change root, selectors are prefixed with root instead. Either argument may
// be empty.
func (r *Resolver) Confine(root string, runAs string) (*Jail, error) {
	var (
		uid, gid int
		account  *user.User
	)
	if runAs != "" {
		u, err := r.Users.Lookup(runAs)
		if err != nil {
			return nil, gopher.ConfigurationError("unknown user", err)
		}
		if uid, err = strconv.Atoi(u.Uid); err != nil {
			return nil, gopher.ConfigurationError("unknown user", fmt.Errorf("non-numeric uid %q", u.Uid))
		}
		if gid, err = strconv.Atoi(u.Gid); err != nil {
			return nil, gopher.ConfigurationError("unknown user", fmt.Errorf("non-numeric gid %q", u.Gid))
		}
		account = u
	}

	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	privileged := r.Sandbox.CanChroot()
	jail := &Jail{Fs: r.Fs, Root: "/"}

	if root != "" {
		if privileged {
			fsys, err := r.Sandbox.Chroot(r.Fs, root)
			if err != nil {
				return nil, gopher.ConfigurationError("chroot", err)
			}
			jail.Fs = fsys
			log.Debug("changed root directory", zap.String("root", root))
		} else {
			jail.RootPrefixed = true
		}
	}

	if account != nil {
		// Supplementary groups can only be changed with privilege, and
		// without it there are none worth dropping.
		if privileged {
			if err := r.Sandbox.Setgroups([]int{gid}); err != nil {
				return nil, gopher.ConfigurationError("setgroups", err)
			}
		}
		if err := r.Sandbox.Setgid(gid); err != nil {
			return nil, gopher.ConfigurationError("setgid", err)
		}
		if err := r.Sandbox.Setuid(uid); err != nil {
			return nil, gopher.ConfigurationError("setuid", err)
		}
		log.Debug("dropped privileges",
			zap.String("user", account.Username),
			zap.Int("uid", uid),
			zap.Int("gid", gid))
	}

	if jail.RootPrefixed {
		canonical, err := Canonicalize(jail.Fs, root)
		if err != nil {
			return nil, gopher.FilesystemError("realpath", err)
		}
		jail.Root = canonical
		log.Debug("emulating root by prefix", zap.String("root", canonical))
	}

	return jail, nil
}

// Resolve turns a selector into a canonical path inside the jail. The empty
// selector names the root.
func (j *Jail) Resolve(selector string) (ResolvedPath, error) {
	if selector == "" {
		selector = "/"
	}

	p := selector
	if j.RootPrefixed {
		p = j.Root + "/" + selector
	} else if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	canonical, err := Canonicalize(j.Fs, p)
	if err != nil {
		return ResolvedPath{}, gopher.FilesystemError("realpath", err)
	}
	if !Within(j.Root, canonical) {
		return ResolvedPath{}, gopher.ConfinementError("root", syscall.EACCES)
	}

	return ResolvedPath{Path: canonical, RootPrefixed: j.RootPrefixed, Root: j.Root}, nil
}

// Contain canonicalizes fsPath, which must name something below p, and
// checks that the result is still within the root. A symlink leading out of
// the root yields a KindConfinement error; other failures are returned as
// Canonicalize reports them.
func (p ResolvedPath) Contain(fsys afero.Fs, fsPath string) (string, error) {
	canonical, err := Canonicalize(fsys, fsPath)
	if err != nil {
		return "", err
	}
	if !Within(p.Root, canonical) {
		return "", gopher.ConfinementError("root", syscall.EACCES)
	}
	return canonical, nil
}

// Strip removes the emulated root from p, so the client is handed selectors
// that look like the ones it sent.
func (p ResolvedPath) Strip(fsPath string) string {
	if !p.RootPrefixed || p.Root == "/" {
		return fsPath
	}
	s := strings.TrimPrefix(fsPath, p.Root)
	if s == "" {
		return "/"
	}
	return s
}

// Child returns the path of the entry name inside p.
func (p ResolvedPath) Child(name string) string {
	if p.Path == "/" {
		return "/" + name
	}
	return p.Path + "/" + name
}
