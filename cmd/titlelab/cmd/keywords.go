package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	keywordsTokens []string
	keywordsLimit  int
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "List the active keyword dataset",
	Long:  "Lists dataset rows in rank order. --token keeps rows containing any of the given tokens.",
	Args:  cobra.NoArgs,
	RunE:  runKeywords,
}

func init() {
	keywordsCmd.Flags().StringArrayVarP(&keywordsTokens, "token", "t", nil, "Keep rows containing this token (repeatable)")
	keywordsCmd.Flags().IntVarP(&keywordsLimit, "limit", "n", 0, "Show at most n rows (0 = all)")
}

func runKeywords(cmd *cobra.Command, args []string) error {
	b, release, err := connect(projectRoot())
	if err != nil {
		return err
	}
	defer release()

	tokens := selectedTokens(keywordsTokens)
	res, err := b.Keywords(tokens, keywordsLimit)
	if err != nil {
		return err
	}
	fmt.Print(formatKeywords(res, tokens))
	return nil
}
