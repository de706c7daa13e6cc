// SPDX-License-Identifier: MPL-2.0

package main

import cmd "sshbox-cli/cmd/sshbox"

func main() {
	cmd.Execute()
}
