package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a keyword export (.xlsx or .csv) as the active dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	// The daemon may run from another directory.
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	b, release, err := connect(projectRoot())
	if err != nil {
		return err
	}
	defer release()

	res, err := b.Import(path)
	if err != nil {
		return err
	}
	fmt.Print(formatImport(res))
	return nil
}
