package main

import (
	"os"

	"github.com/injibr/inji-certify/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
