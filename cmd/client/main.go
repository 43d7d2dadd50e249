package main

import "pacekeeper/cmd/client/cmd"

func main() {
	cmd.Execute()
}
