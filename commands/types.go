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

package commands

import (
	"cmp"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/openpubkey/gopherd/files"
	"github.com/openpubkey/gopherd/gopher"
	"golang.org/x/exp/slices"
)

// TypesCmd prints the extension table used to classify files
type TypesCmd struct {
	Out io.Writer
}

func NewTypesCmd(out io.Writer) *TypesCmd {
	return &TypesCmd{Out: out}
}

func (t *TypesCmd) Run() int {
	exts := make([]string, 0, len(files.ExtensionTypes))
	for ext := range files.ExtensionTypes {
		exts = append(exts, ext)
	}
	// Grouped by type, then alphabetical.
	slices.SortFunc(exts, func(a, b string) int {
		if c := cmp.Compare(files.ExtensionTypes[a], files.ExtensionTypes[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	w := tabwriter.NewWriter(t.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "EXTENSION\tTYPE\tCODE\n")
	for _, ext := range exts {
		it := files.ExtensionTypes[ext]
		fmt.Fprintf(w, ".%s\t%s\t%c\n", ext, it, it)
	}
	fmt.Fprintf(w, "(other)\t%s, %s or %s by content\t%c %c %c\n",
		gopher.TypeText, gopher.TypeHTML, gopher.TypeBinary,
		gopher.TypeText, gopher.TypeHTML, gopher.TypeBinary)
	if err := w.Flush(); err != nil {
		return 1
	}
	return 0
}
