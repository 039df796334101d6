package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var analyzeTokens []string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [title]",
	Short: "Score a title against the active dataset",
	Long: "Tokenizes the title, lists the dataset keywords it contains and their summed popularity,\n" +
		"and records it in history. Reads the title from stdin when none is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringArrayVarP(&analyzeTokens, "token", "t", nil, "Only show matches containing this token (repeatable; repeating a token deselects it)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var t string
	switch {
	case len(args) == 1:
		t = args[0]
	case isStdinPipe():
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read title from stdin: %w", err)
		}
		t = line
	default:
		return fmt.Errorf("title required")
	}
	t = strings.TrimSpace(t)

	b, release, err := connect(projectRoot())
	if err != nil {
		return err
	}
	defer release()

	res, err := b.Analyze(t, selectedTokens(analyzeTokens))
	if err != nil {
		return err
	}
	fmt.Print(formatAnalysis(&res.Analysis, &res.Filtered))
	return nil
}
