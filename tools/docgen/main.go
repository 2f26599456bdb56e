// Package main generates CLI reference documentation from the deal-scorer
// and dsctl command trees.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	servercmd "github.com/donaldgifford/deal-scorer/cmd/deal-scorer/cmd"
	dsctlcmd "github.com/donaldgifford/deal-scorer/cmd/dsctl/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory for generated markdown")
	flag.Parse()

	for _, root := range []*cobra.Command{servercmd.Root(), dsctlcmd.Root()} {
		dir := filepath.Join(*output, root.Name())
		if err := generate(root, dir); err != nil {
			log.Fatalf("generating %s docs: %v", root.Name(), err)
		}
		fmt.Printf("CLI docs generated in %s/\n", dir)
	}
}

func generate(root *cobra.Command, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	root.DisableAutoGenTag = true
	return doc.GenMarkdownTree(root, dir)
}
