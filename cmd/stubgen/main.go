package main

import (
	"os"

	"github.com/pterm/pterm"

	"github.com/qmlstub/stubgen/cli"
	"github.com/qmlstub/stubgen/logger"
)

func main() {
	err := cli.Execute()
	logger.Cleanup()
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
