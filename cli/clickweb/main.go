package main

import (
	"os"

	clickwebcmder "github.com/papercomputeco/clickweb/cmd/clickweb"
)

func main() {
	cmd := clickwebcmder.NewClickwebCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
