package main

import (
	"os"

	"github.com/bianoble/buildcache/cmd/buildcache/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
