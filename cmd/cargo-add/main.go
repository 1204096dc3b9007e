package main

import "cargo-add/internal/cli"

func main() {
	cli.Execute()
}
