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

package files

import (
	"errors"
	"io"

	"github.com/openpubkey/gopherd/gopher"
	"github.com/spf13/afero"
)

// Send copies the file at path to w and returns the number of bytes written.
// Failing to open or read the file is a fatal filesystem error; a failing w
// is returned as is.
func Send(fs afero.Fs, path string, w io.Writer) (int64, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, gopher.FilesystemError("open", err)
	}
	defer f.Close()

	n, err := io.Copy(w, readerOnly{f})
	if err != nil {
		var re *readError
		if errors.As(err, &re) {
			return n, gopher.FilesystemError("read", re.err)
		}
		return n, err
	}
	return n, nil
}

// readerOnly hides WriterTo/ReaderFrom fast paths so read failures can be
// told apart from write failures.
type readerOnly struct {
	r io.Reader
}

func (r readerOnly) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF {
		return n, &readError{err: err}
	}
	return n, err
}

type readError struct {
	err error
}

func (e *readError) Error() string { return e.err.Error() }

func (e *readError) Unwrap() error { return e.err }
