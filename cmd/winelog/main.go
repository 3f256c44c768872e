package main

import (
	"github.com/SlimIO/Winelog/cmd/winelog/commands"
)

func main() {
	commands.Execute()
}
