package main

import (
	"os"

	"github.com/solatis/shelfwright/cmd/shelfwright/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
