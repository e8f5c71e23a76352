package main

import (
	"os"

	advisorcmder "github.com/papercomputeco/advisor/cmd/advisor"
)

func main() {
	cmd := advisorcmder.NewAdvisorCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
