package main

import (
	"os"

	"medguide/internal/cli"

	"github.com/charmbracelet/log"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
