// SPDX-License-Identifier: MPL-2.0

package main

import cmd "extscan-cli/cmd/extscan"

func main() {
	cmd.Execute()
}
