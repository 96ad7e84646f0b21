package main

import "riskpipe/internal/cli"

func main() {
	cli.Execute()
}
