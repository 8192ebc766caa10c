package main

import "github.com/Conceptual-Machines/lyrics-api/internal/cli"

func main() {
	cli.Execute()
}
