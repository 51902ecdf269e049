package main

import (
	"os"

	"proof-of-portfolio/cmd/pop/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
