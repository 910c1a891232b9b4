package main

import "github.com/agentfleet/tokengate/internal/cli"

func main() {
	cli.Execute()
}
