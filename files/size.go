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
	"math"
)

// HumanSize renders a byte count the way directory menus show it. Thresholds
// are powers of 1000 while the divisor is a power of 1024, so 2048 bytes is
// "2.00kB" and 1,500,000 bytes is "1.43MB".
func HumanSize(n int64) string {
	size := float64(n)
	switch {
	case size < 1:
		return "0"
	case size < 1000:
		return fmt.Sprintf("%dB", n)
	case size < 1000000:
		return fmt.Sprintf("%.2fkB", size/1024)
	}

	const units = "MGTP"
	exp := 2
	for exp < len(units)+1 && size >= math.Pow(1000, float64(exp+1)) {
		exp++
	}
	return fmt.Sprintf("%.2f%cB", size/math.Pow(1024, float64(exp)), units[exp-2])
}
