package main

import (
	"os"

	"github.com/conneroisu/dxcwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
