// Netlink is a command-line client for Netlink smart-office devices.
//
// It provides device discovery, desk and monitor control, kiosk browser
// control, and a live dashboard fed by the device's push events. Known
// devices are stored in a local registry so commands can address them by
// nickname.
//
// Usage:
//
//	netlink [command] [flags]
//
// See 'netlink --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrGreenBoutiqueOffices/go-netlink/internal/logging"
	"github.com/MrGreenBoutiqueOffices/go-netlink/internal/version"
)

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "netlink",
	Short: "Netlink Smart-Office Device Client",
	Long: `A command-line client for Netlink smart-office devices.

Controls sit/stand desks, DDC monitors and the kiosk browser of a Netlink
device, over its REST API or live event socket. Devices added with
'netlink devices add' can be addressed by nickname in every command.

Set NETLINK_LOG_LEVEL=debug for protocol-level tracing on stderr.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
	SilenceUsage: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("netlink %s (commit: %s)\n", version.Version, version.Commit)
	},
}
