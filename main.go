package main

import "github.com/diogo/voxchat/internal/commands"

func main() {
	commands.Execute()
}
