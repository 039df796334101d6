package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/titlelab/internal/adapters/socket"
	"github.com/corey/titlelab/internal/app"
)

var wipeForce bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Clear all titlelab data for the workspace",
	Long:  "Deletes the imported dataset and analysis history. Works with or without daemon.",
	RunE:  runWipe,
}

func init() {
	wipeCmd.Flags().BoolVar(&wipeForce, "force", false, "Skip confirmation prompt")
}

func runWipe(cmd *cobra.Command, args []string) error {
	root := projectRoot()

	if !wipeForce {
		fmt.Printf("⚠ This will delete all titlelab data for %s. Continue? [y/N] ", filepath.Base(root))
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("cancelled")
			return nil
		}
	}

	// If daemon is running, wipe via socket
	client := socket.NewClient(socket.SocketPath(root))
	if client.Ping() {
		if err := client.Wipe(); err != nil {
			return err
		}
		fmt.Println("⚡ workspace data wiped (daemon)")
		return nil
	}

	cfg, err := app.LoadConfig(root)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		fmt.Println("⚡ no data to wipe")
		return nil
	}

	b, release, err := connect(root)
	if err != nil {
		return err
	}
	defer release()
	if err := b.Wipe(); err != nil {
		return err
	}

	fmt.Println("⚡ workspace data wiped")
	return nil
}
