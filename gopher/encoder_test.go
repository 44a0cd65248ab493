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
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncoderItem(t *testing.T) {
	tests := []struct {
		name     string
		itemType ItemType
		path     string
		host     string
		port     int
		format   string
		args     []any
		expected string
		rejected int
	}{
		{
			name:     "text file",
			itemType: TypeText,
			path:     "/docs/a.txt",
			host:     "gopher.example.org",
			port:     70,
			format:   "%s - %s",
			args:     []any{"a.txt", "10B"},
			expected: "0a.txt - 10B\t/docs/a.txt\tgopher.example.org\t70\r\n",
		},
		{
			name:     "directory",
			itemType: TypeDirectory,
			path:     "/sub",
			host:     "localhost",
			port:     7070,
			format:   "%s",
			args:     []any{"sub"},
			expected: "1sub\t/sub\tlocalhost\t7070\r\n",
		},
		{
			name:     "tab in name",
			itemType: TypeText,
			path:     "/a\tb",
			host:     "localhost",
			port:     70,
			format:   "%s",
			args:     []any{"a\tb"},
			expected: "3Illegal character in filename\tfake\t(NULL)\t0\r\n",
			rejected: 1,
		},
		{
			name:     "newline in path",
			itemType: TypeBinary,
			path:     "/evil\r\n1injected",
			host:     "localhost",
			port:     70,
			format:   "%s",
			args:     []any{"evil"},
			expected: "3Illegal character in path to file\tfake\t(NULL)\t0\r\n",
			rejected: 1,
		},
		{
			name:     "carriage return in host",
			itemType: TypeHTML,
			path:     "GET /",
			host:     "example.org\r",
			port:     80,
			format:   "%s",
			args:     []any{"http://example.org/"},
			expected: "3Illegal character in hostname\tfake\t(NULL)\t0\r\n",
			rejected: 1,
		},
		{
			name:     "percent in argument is not reinterpreted",
			itemType: TypeText,
			path:     "/100%.txt",
			host:     "localhost",
			port:     70,
			format:   "%s",
			args:     []any{"100%d.txt"},
			expected: "0100%d.txt\t/100%.txt\tlocalhost\t70\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			enc := NewEncoder(&out, nil)

			err := enc.Item(tt.itemType, tt.path, tt.host, tt.port, tt.format, tt.args...)
			require.NoError(t, err)
			require.Equal(t, tt.expected, out.String())
			require.Equal(t, 1, enc.Records())
			require.Equal(t, tt.rejected, enc.Rejected())
		})
	}
}

func TestEncoderInfoAndEnd(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, nil)

	require.NoError(t, enc.Info(""))
	require.NoError(t, enc.Info("%d item%s total", 2, "s"))
	require.NoError(t, enc.End())

	require.Equal(t, "i\tfake\t(NULL)\t0\r\n"+
		"i2 items total\tfake\t(NULL)\t0\r\n"+
		".\r\n", out.String())
}

func TestEncoderFail(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, nil)

	err := FilesystemError("stat", &fs.PathError{Op: "stat", Path: "/srv/gopher/secret", Err: syscall.ENOENT})
	require.NoError(t, enc.Fail(err))
	require.Equal(t, "3stat: no such file or directory\tfake\t(NULL)\t0\r\n.\r\n", out.String())
	require.NotContains(t, out.String(), "/srv/gopher")
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestEncoderWriteError(t *testing.T) {
	enc := NewEncoder(failingWriter{}, nil)
	require.ErrorContains(t, enc.Info("hello"), "broken pipe")
	require.ErrorContains(t, enc.End(), "broken pipe")
}

func TestErrorReason(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
		kind     Kind
	}{
		{
			name:     "path error is unwrapped",
			err:      FilesystemError("opendir", &fs.PathError{Op: "open", Path: "/x", Err: syscall.EACCES}),
			expected: "opendir: permission denied",
			kind:     KindFilesystem,
		},
		{
			name:     "link error is unwrapped",
			err:      FilesystemError("realpath", &os.LinkError{Op: "readlink", Old: "/a", New: "/b", Err: syscall.ELOOP}),
			expected: "realpath: " + syscall.ELOOP.Error(),
			kind:     KindFilesystem,
		},
		{
			name:     "syscall error is unwrapped",
			err:      ConfigurationError("chroot", os.NewSyscallError("chroot", syscall.EPERM)),
			expected: "chroot: operation not permitted",
			kind:     KindConfiguration,
		},
		{
			name:     "wrapped errors keep their text",
			err:      ConfigurationError("unknown user", fmt.Errorf("lookup: %w", errors.New("no such user"))),
			expected: "unknown user: lookup: no such user",
			kind:     KindConfiguration,
		},
		{
			name:     "confinement",
			err:      ConfinementError("root", syscall.EACCES),
			expected: "root: permission denied",
			kind:     KindConfinement,
		},
		{
			name:     "nil cause",
			err:      FilesystemError("read", nil),
			expected: "read: unknown error",
			kind:     KindFilesystem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.err.Error())

			kind, ok := KindOf(fmt.Errorf("outer: %w", tt.err))
			require.True(t, ok)
			require.Equal(t, tt.kind, kind)
		})
	}

	_, ok := KindOf(errors.New("plain"))
	require.False(t, ok)
}

func TestItemTypeString(t *testing.T) {
	require.Equal(t, "html", TypeHTML.String())
	require.Equal(t, "telnet", TypeTelnet.String())
	require.Equal(t, "unknown(x)", ItemType('x').String())
}
