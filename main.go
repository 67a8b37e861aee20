package main

import "table-manager/cmd"

func main() {
	cmd.Execute()
}
