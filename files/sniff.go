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
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// Sniffer guesses the MIME type of a file from its contents.
type Sniffer interface {
	Sniff(path string) (string, error)
}

// MimeSniffer sniffs with mimetype, reading through an afero.Fs so that the
// same code works on the real filesystem after a chroot and in tests.
type MimeSniffer struct {
	Fs afero.Fs
}

func NewMimeSniffer(fs afero.Fs) *MimeSniffer {
	return &MimeSniffer{Fs: fs}
}

func (m *MimeSniffer) Sniff(path string) (string, error) {
	if m.Fs == nil {
		return "", fmt.Errorf("no filesystem to sniff %s", path)
	}
	f, err := m.Fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if mt == nil {
		return "", fmt.Errorf("inconclusive content type for %s", path)
	}
	return mt.String(), nil
}
