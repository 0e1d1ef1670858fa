// SPDX-License-Identifier: MPL-2.0

// Package main is the entry point of the lever CLI.
package main

import cmd "lever-cli/cmd/lever"

func main() {
	cmd.Execute()
}
