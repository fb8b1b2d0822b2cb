package main

import "github.com/vsinha/opsplan/pkg/interfaces/cli/commands"

func main() {
	commands.Execute()
}
