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

package menu

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/openpubkey/gopherd/gopher"
)

const schemeSeparator = "://"

var errNotURL = errors.New("no scheme separator")

// PortLookup returns the well-known port of a service.
type PortLookup func(service string) (int, error)

// LookupServicePort consults the system services database.
func LookupServicePort(service string) (int, error) {
	return net.LookupPort("tcp", service)
}

// Link is a URL found on a banner line.
type Link struct {
	Service string
	Host    string
	Port    int
	// DefaultPort is set when no usable port was given and Port came from
	// the services database.
	DefaultPort bool
	// Path never carries its leading slash.
	Path string
}

// ParseLink splits a decoded line of the form service://host[:port]/path.
// The path is cut before the port so a colon in the path is not mistaken
// for one.
func ParseLink(line string, lookup PortLookup) (Link, error) {
	service, rest, ok := strings.Cut(line, schemeSeparator)
	if !ok {
		return Link{}, errNotURL
	}
	hostport, path, _ := strings.Cut(rest, "/")

	link := Link{Service: service, Host: hostport, Path: path}
	if host, port, ok := strings.Cut(hostport, ":"); ok {
		link.Host = host
		if n, err := strconv.ParseUint(port, 10, 16); err == nil && n != 0 {
			link.Port = int(n)
			return link, nil
		}
	}

	port, err := lookup(service)
	if err != nil {
		return Link{}, fmt.Errorf("no default port for service %q: %w", service, err)
	}
	link.Port = port
	link.DefaultPort = true
	return link, nil
}

// Type returns the item type a link to this service is shown as, or false
// when the service is not one a gopher client can follow.
func (l Link) Type() (gopher.ItemType, bool) {
	switch {
	case strings.HasPrefix(l.Service, "http"):
		return gopher.TypeHTML, true
	case strings.HasPrefix(l.Service, "gopher"):
		return gopher.TypeDirectory, true
	case strings.HasPrefix(l.Service, "telnet"):
		return gopher.TypeTelnet, true
	}
	return 0, false
}

// Selector is the path a client sends to follow the link. Web links are
// wrapped in a request line for gopher-to-HTTP gateways.
func (l Link) Selector() string {
	if t, _ := l.Type(); t == gopher.TypeHTML {
		if strings.HasPrefix(l.Path, "/") {
			return "GET " + l.Path
		}
		return "GET /" + l.Path
	}
	return l.Path
}

// String is the display form; the port is shown only when it is not the
// service default.
func (l Link) String() string {
	if l.DefaultPort {
		return fmt.Sprintf("%s://%s/%s", l.Service, l.Host, l.Path)
	}
	return fmt.Sprintf("%s://%s:%d/%s", l.Service, l.Host, l.Port, l.Path)
}

// Unescape decodes %XX escapes and turns '+' into a space. Escapes that are
// not two hex digits are kept as they are.
func Unescape(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '%':
			if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
				b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
				i += 2
				continue
			}
			b.WriteByte(c)
		case '+':
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
