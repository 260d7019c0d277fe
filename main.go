package main

import (
	"os"

	"github.com/abhisek/pal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
