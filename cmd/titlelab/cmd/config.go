package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/titlelab/internal/adapters/socket"
	"github.com/corey/titlelab/internal/app"
)

var configYAML bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows workspace paths, effective settings, and daemon status. No daemon required.",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configYAML, "yaml", false, "Print the effective config.yaml")
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	cfg, err := app.LoadConfig(root)
	if err != nil {
		return err
	}

	if configYAML {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	paths := app.NewPaths(root)
	sockPath := socket.SocketPath(root)

	client := socket.NewClient(sockPath)
	daemonRunning := client.Ping()
	daemonStatus := fmt.Sprintf("%s✗ not running%s", colorYellow, colorReset)
	if daemonRunning {
		daemonStatus = fmt.Sprintf("%s✓ running%s", colorGreen, colorReset)
	}

	configSource := paths.Config
	if _, err := os.Stat(paths.Config); err != nil {
		configSource = "defaults"
	}

	fmt.Printf("%s⚡ titlelab config%s\n", colorBold, colorReset)
	fmt.Printf("  Workspace:  %s\n", cfg.Workspace)
	fmt.Printf("  Root:       %s\n", root)
	fmt.Printf("  Config:     %s\n", configSource)
	fmt.Printf("  DB:         %s\n", cfg.DBPath)
	fmt.Printf("  Inbox:      %s (enabled: %t)\n", paths.Inbox, cfg.Inbox.Enabled)
	fmt.Printf("  Socket:     %s\n", sockPath)
	fmt.Printf("  Mode:       %s\n", cfg.MatchMode)
	fmt.Printf("  Daemon:     %s\n", daemonStatus)

	if daemonRunning {
		if portData, err := os.ReadFile(paths.PortFile); err == nil {
			fmt.Printf("  Dashboard:  http://localhost:%s\n", strings.TrimSpace(string(portData)))
		}
	}

	return nil
}
