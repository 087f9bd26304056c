// SPDX-License-Identifier: MPL-2.0

package main

import (
	cmd "swiftbridge/cmd/swiftbridge"
)

func main() {
	cmd.Execute()
}
