package main

import "github.com/avaldes/marsight/internal/cli"

func main() {
	cli.Execute()
}
