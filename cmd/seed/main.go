package main

import "github.com/pulseox-org/pulseox/cmd/seed/command"

func main() {
	command.Execute()
}
