// SPDX-License-Identifier: MPL-2.0

package main

import cmd "sysmod-cli/cmd/sysmod"

func main() {
	cmd.Execute()
}
