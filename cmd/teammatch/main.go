package main

import "teammatch/internal/cli"

func main() {
	cli.Execute()
}
