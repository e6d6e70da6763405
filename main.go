package main

import (
	"os"

	"github.com/kyotake/machivoice/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
