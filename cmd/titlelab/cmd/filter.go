package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var filterTokens []string

var filterCmd = &cobra.Command{
	Use:   "filter <id>",
	Short: "Narrow a title's matches to keywords containing the given tokens",
	Long:  "id is a history entry (custom-…) or a recommended title (lc-1, goal-2, other-0, …).",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilter,
}

func init() {
	filterCmd.Flags().StringArrayVarP(&filterTokens, "token", "t", nil, "Selected token (repeatable; repeating a token deselects it)")
}

func runFilter(cmd *cobra.Command, args []string) error {
	b, release, err := connect(projectRoot())
	if err != nil {
		return err
	}
	defer release()

	res, err := b.Filter(args[0], selectedTokens(filterTokens))
	if err != nil {
		return err
	}
	fmt.Print(formatFilter(res))
	return nil
}
