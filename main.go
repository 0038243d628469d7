// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/pmswitch/pmswitch/cmd/pmswitch"

func main() {
	cmd.Execute()
}
