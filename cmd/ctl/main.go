package main

import (
	"crmsync/cmd/ctl/cmd"
)

func main() {
	cmd.Execute()
}
