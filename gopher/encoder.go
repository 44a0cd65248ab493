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
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

const (
	// Terminator ends every menu and every non-binary file response.
	Terminator = ".\r\n"

	// Info and error records do not point anywhere; clients ignore these fields.
	placeholderPath = "fake"
	placeholderHost = "(NULL)"
	placeholderPort = 0

	illegalCharacters = "\t\r\n"
)

// Messages substituted for a record whose fields would break the line format.
const (
	MsgIllegalName = "Illegal character in filename"
	MsgIllegalPath = "Illegal character in path to file"
	MsgIllegalHost = "Illegal character in hostname"
)

// ErrIllegalCharacter is reported by Validate when a field contains TAB, CR
// or LF.
var ErrIllegalCharacter = errors.New("illegal character")

// Encoder writes menu records. Every field is checked for characters that
// would let a filename or banner line inject extra records; offending records
// are replaced by a single error record and the response carries on.
type Encoder struct {
	w        io.Writer
	log      *zap.Logger
	records  int
	rejected int
}

// NewEncoder returns an Encoder writing to w. A nil logger disables logging.
func NewEncoder(w io.Writer, log *zap.Logger) *Encoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Encoder{w: w, log: log}
}

// Validate returns ErrIllegalCharacter if s contains TAB, CR or LF.
func Validate(s string) error {
	if strings.ContainsAny(s, illegalCharacters) {
		return ErrIllegalCharacter
	}
	return nil
}

// Item renders the display name from format and args and writes one record.
// The returned error is only ever a write error; a field that fails
// validation causes an error record to be written instead.
func (e *Encoder) Item(t ItemType, path, host string, port int, format string, args ...any) error {
	name := fmt.Sprintf(format, args...)

	var msg string
	switch {
	case Validate(name) != nil:
		msg = MsgIllegalName
	case Validate(path) != nil:
		msg = MsgIllegalPath
	case Validate(host) != nil:
		msg = MsgIllegalHost
	}
	if msg != "" {
		e.rejected++
		e.log.Warn("record rejected",
			zap.String("reason", msg),
			zap.Stringer("type", t),
			zap.String("name", name),
			zap.String("path", path),
			zap.String("host", host))
		return e.write(TypeError, msg, placeholderPath, placeholderHost, placeholderPort)
	}

	return e.write(t, name, path, host, port)
}

// Info writes an informational record.
func (e *Encoder) Info(format string, args ...any) error {
	return e.Item(TypeInfo, placeholderPath, placeholderHost, placeholderPort, format, args...)
}

// Error writes an error record carrying msg.
func (e *Encoder) Error(msg string) error {
	return e.Item(TypeError, placeholderPath, placeholderHost, placeholderPort, "%s", msg)
}

// End writes the response terminator.
func (e *Encoder) End() error {
	_, err := io.WriteString(e.w, Terminator)
	return err
}

// Fail writes the record for a fatal error followed by the terminator.
func (e *Encoder) Fail(err error) error {
	if werr := e.Error(err.Error()); werr != nil {
		return werr
	}
	return e.End()
}

// Records returns the number of records written, substitutes included.
func (e *Encoder) Records() int {
	return e.records
}

// Rejected returns the number of records replaced by an error record.
func (e *Encoder) Rejected() int {
	return e.rejected
}

func (e *Encoder) write(t ItemType, name, path, host string, port int) error {
	e.records++
	_, err := fmt.Fprintf(e.w, "%c%s\t%s\t%s\t%d\r\n", t, name, path, host, port)
	return err
}
