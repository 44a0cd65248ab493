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

// Package gopher implements the wire side of the gopher protocol: item type
// characters, menu records and the response terminator.
package gopher

// ItemType is the single character that starts every menu line and tells the
// client how to treat the selector it refers to.
type ItemType byte

const (
	TypeText      ItemType = '0'
	TypeDirectory ItemType = '1'
	TypeError     ItemType = '3'
	TypeBinHex    ItemType = '4'
	TypeTelnet    ItemType = '8'
	TypeBinary    ItemType = '9'
	TypeGIF       ItemType = 'g'
	TypeHTML      ItemType = 'h'
	TypeImage     ItemType = 'I'
	TypeInfo      ItemType = 'i'
	TypeAudio     ItemType = 's'
)

// String returns a short lowercase name for the type, used in logs and in
// `gopherd types`.
func (t ItemType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeDirectory:
		return "directory"
	case TypeError:
		return "error"
	case TypeBinHex:
		return "binhex"
	case TypeTelnet:
		return "telnet"
	case TypeBinary:
		return "binary"
	case TypeGIF:
		return "gif"
	case TypeHTML:
		return "html"
	case TypeImage:
		return "image"
	case TypeInfo:
		return "info"
	case TypeAudio:
		return "audio"
	default:
		return "unknown(" + string(rune(t)) + ")"
	}
}
