package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyDelete string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List custom title analyses, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyDelete, "delete", "", "Delete the entry with this id")
}

func runHistory(cmd *cobra.Command, args []string) error {
	b, release, err := connect(projectRoot())
	if err != nil {
		return err
	}
	defer release()

	if historyDelete != "" {
		ok, err := b.DeleteHistory(historyDelete)
		if err != nil {
			return err
		}
		if ok {
			fmt.Printf("⚡ deleted %s\n", historyDelete)
		} else {
			fmt.Printf("⚡ no entry %s\n", historyDelete)
		}
		return nil
	}

	res, err := b.History()
	if err != nil {
		return err
	}
	fmt.Print(formatHistory(res))
	return nil
}
