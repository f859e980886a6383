package main

import "github.com/example/jsviz/cmd/jsviz/commands"

func main() {
	commands.Execute()
}
