// Package main is the entry point for the deal-scorer service.
package main

import (
	"os"

	"github.com/donaldgifford/deal-scorer/cmd/deal-scorer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
