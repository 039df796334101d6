package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Show the recommended title board for the active dataset",
	Args:  cobra.NoArgs,
	RunE:  runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) error {
	b, release, err := connect(projectRoot())
	if err != nil {
		return err
	}
	defer release()

	res, err := b.Recommend()
	if err != nil {
		return err
	}
	fmt.Print(formatRecommend(res))
	return nil
}
