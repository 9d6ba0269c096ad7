package main

import (
	"os"

	"github.com/mwdvs/coldwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
