package main

import "github.com/pulseox-org/pulseox/api"

func main() {
	api.MainLoop()
}
