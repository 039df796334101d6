package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/titlelab/internal/domain/title"
)

var lengthCmd = &cobra.Command{
	Use:   "length <title>",
	Short: "Check a title against the 60-unit length limit",
	Long:  "Full-width characters count two units, ASCII one. No daemon required.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLength,
}

func runLength(cmd *cobra.Command, args []string) error {
	t := strings.Join(args, " ")
	m := title.Measure(t)
	fmt.Print(formatLength(t, m))
	if !m.Valid {
		return fmt.Errorf("title is %d units, limit is %d", m.Length, title.MaxVisualLength)
	}
	return nil
}
