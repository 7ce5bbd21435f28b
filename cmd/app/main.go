package main

import (
	"os"

	"github.com/boni03200-lang/gomasecure/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}
