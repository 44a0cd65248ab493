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

package gopher

import (
	"errors"
	"io/fs"
	"os"
)

// Kind classifies the fatal errors that end a response early.
type Kind int

const (
	// KindFilesystem covers open, stat, readdir and read failures.
	KindFilesystem Kind = iota
	// KindConfiguration covers unknown users and failed root changes or
	// privilege drops.
	KindConfiguration
	// KindConfinement is a resolved path outside the configured root.
	KindConfinement
)

func (k Kind) String() string {
	switch k {
	case KindFilesystem:
		return "filesystem"
	case KindConfiguration:
		return "configuration"
	case KindConfinement:
		return "confinement"
	default:
		return "unknown"
	}
}

// Error is a fatal error. It is shown to the client as "<op>: <reason>".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return e.Op + ": " + reason(e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FilesystemError wraps err as a KindFilesystem error for operation op.
func FilesystemError(op string, err error) *Error {
	return &Error{Kind: KindFilesystem, Op: op, Err: err}
}

// ConfigurationError wraps err as a KindConfiguration error for operation op.
func ConfigurationError(op string, err error) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

// ConfinementError wraps err as a KindConfinement error for operation op.
func ConfinementError(op string, err error) *Error {
	return &Error{Kind: KindConfinement, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, and false if
// there is none.
func KindOf(err error) (Kind, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	return 0, false
}

// reason drops the path-carrying wrappers the os package puts around errno
// values so that no filesystem path reaches the client.
func reason(err error) string {
	for {
		switch e := err.(type) {
		case nil:
			return "unknown error"
		case *fs.PathError:
			err = e.Err
		case *os.LinkError:
			err = e.Err
		case *os.SyscallError:
			err = e.Err
		default:
			return err.Error()
		}
	}
}
