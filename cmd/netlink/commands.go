package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrGreenBoutiqueOffices/go-netlink/netlink"
)

// Command flags
var (
	deviceHost     string
	devicePort     int
	deviceToken    string
	scanTimeout    int
	requestTimeout int
)

func init() {
	// Common flags for device commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&deviceHost, "host", "", "Device host or IP address (skips the device registry)")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", netlink.DefaultPort, "Device HTTP port")
	rootCmd.PersistentFlags().StringVar(&deviceToken, "token", "", "Bearer token (overrides the stored one)")
	rootCmd.PersistentFlags().IntVar(&requestTimeout, "timeout", 10, "Request timeout in seconds")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(deskCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(browserCmd)
	rootCmd.AddCommand(watchCmd)

	deskCmd.AddCommand(deskStatusCmd, deskHeightCmd, deskStopCmd, deskResetCmd, deskCalibrateCmd, deskBeepCmd)
	monitorCmd.AddCommand(monitorListCmd, monitorStatusCmd, monitorPowerCmd, monitorBrightnessCmd, monitorVolumeCmd, monitorSourceCmd)
	browserCmd.AddCommand(browserStatusCmd, browserURLCmd, browserRefreshCmd)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(requestTimeout)*time.Second)
}

// discoverCmd scans the network for devices
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Scan for Netlink devices on the network",
	Long: `Scan for Netlink devices using mDNS/DNS-SD discovery.

This command listens for mDNS broadcasts from Netlink devices and displays
all discovered devices with their addresses, device ids and capabilities.`,
	Example: `  # Scan for 10 seconds (default)
  netlink discover

  # Quick 3-second scan
  netlink discover --scan-timeout 3`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&scanTimeout, "scan-timeout", 10, "Scan timeout in seconds")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for Netlink devices (timeout: %ds)...\n\n", scanTimeout)

	devices, err := netlink.Discover(cmd.Context(), time.Duration(scanTimeout)*time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the device is powered on and on the same network")
		fmt.Println("  - Firewall must allow mDNS (UDP port 5353)")
		fmt.Println("  - Try increasing --scan-timeout for slower networks")
		fmt.Println("  - Use --host to address the device directly")
		return nil
	}

	fmt.Printf("Found %d device(s):\n\n", len(devices))
	for i, device := range devices {
		fmt.Printf("%d. %s\n", i+1, device.Name)
		fmt.Printf("   ID:       %s\n", device.DeviceID)
		fmt.Printf("   Address:  %s:%d\n", device.Host, device.Port)
		fmt.Printf("   Model:    %s (firmware %s, API %s)\n", device.Model, device.Version, device.APIVersion)
		fmt.Printf("   Desk:     %v\n", device.HasDesk)
		if len(device.Monitors) > 0 {
			fmt.Printf("   Monitors: %v\n", device.Monitors)
		}
		fmt.Println()
	}

	fmt.Println("Use 'netlink devices add' to register a device for use by nickname")
	return nil
}

// deskCmd groups desk control subcommands
var deskCmd = &cobra.Command{
	Use:   "desk",
	Short: "Control the sit/stand desk",
}

var deskStatusCmd = &cobra.Command{
	Use:   "status [device]",
	Short: "Show the current desk status",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, name, err := clientForTarget(args)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		status, err := client.GetDeskStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Desk on %s:\n", name)
		fmt.Printf("  Height:     %.1f cm\n", status.Height)
		fmt.Printf("  Mode:       %s\n", status.Mode)
		fmt.Printf("  Moving:     %v\n", status.Moving)
		fmt.Printf("  Controller: connected=%v\n", status.ControllerConnected)
		if status.Error != nil && *status.Error != "" {
			fmt.Printf("  Error:      %s\n", *status.Error)
		}
		return nil
	},
}

var deskHeightCmd = &cobra.Command{
	Use:   "height <cm> [device]",
	Short: "Move the desk to a height in cm",
	Example: `  netlink desk height 110 office-west
  netlink desk height 72.5 --host 192.168.1.50`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		height, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid height %q: %w", args[0], err)
		}
		client, name, err := clientForTarget(args[1:])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		if err := client.SetDeskHeight(ctx, height); err != nil {
			return err
		}
		fmt.Printf("Moving desk on %s to %.1f cm\n", name, height)
		return nil
	},
}

var deskStopCmd = &cobra.Command{
	Use:   "stop [device]",
	Short: "Stop desk movement immediately",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSimpleDeskCommand("Desk stopped", (*netlink.Client).StopDesk),
}

var deskResetCmd = &cobra.Command{
	Use:   "reset [device]",
	Short: "Reset the desk controller",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSimpleDeskCommand("Desk controller reset", (*netlink.Client).ResetDesk),
}

var deskCalibrateCmd = &cobra.Command{
	Use:   "calibrate [device]",
	Short: "Run the desk calibration routine",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSimpleDeskCommand("Desk calibration started", (*netlink.Client).CalibrateDesk),
}

// runSimpleDeskCommand builds a RunE for argument-less desk operations
func runSimpleDeskCommand(doneMsg string, op func(*netlink.Client, context.Context, ...netlink.Transport) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client, name, err := clientForTarget(args)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		if err := op(client, ctx); err != nil {
			return err
		}
		fmt.Printf("%s on %s\n", doneMsg, name)
		return nil
	}
}

var deskBeepCmd = &cobra.Command{
	Use:   "beep <count> [device]",
	Short: "Make the desk controller beep (1-5 times)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid count %q: %w", args[0], err)
		}
		client, name, err := clientForTarget(args[1:])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		if err := client.BeepDesk(ctx, count); err != nil {
			return err
		}
		fmt.Printf("Beeped desk on %s %d time(s)\n", name, count)
		return nil
	},
}

// monitorCmd groups monitor control subcommands
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Control attached monitors",
}

var monitorListCmd = &cobra.Command{
	Use:   "list [device]",
	Short: "List monitors attached to the device",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, name, err := clientForTarget(args)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		monitors, err := client.GetMonitors(ctx)
		if err != nil {
			return err
		}
		if len(monitors) == 0 {
			fmt.Printf("No monitors attached to %s\n", name)
			return nil
		}
		fmt.Printf("Monitors on %s:\n", name)
		for _, m := range monitors {
			fmt.Printf("  bus %-3d %s (%s)\n", m.Bus, m.Model, m.Type)
		}
		return nil
	},
}

var monitorStatusCmd = &cobra.Command{
	Use:   "status <bus> [device]",
	Short: "Show the full state of a monitor",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bus, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid bus %q: %w", args[0], err)
		}
		client, name, err := clientForTarget(args[1:])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		state, err := client.GetMonitorStatus(ctx, bus)
		if err != nil {
			return err
		}
		fmt.Printf("Monitor %s on %s:\n", state.Bus, name)
		fmt.Printf("  Power:      %s\n", state.Power)
		if state.Source != nil {
			fmt.Printf("  Source:     %s\n", *state.Source)
		}
		if state.Brightness != nil {
			fmt.Printf("  Brightness: %d%%\n", *state.Brightness)
		}
		if state.Volume != nil {
			fmt.Printf("  Volume:     %d%%\n", *state.Volume)
		}
		if state.Model != nil {
			fmt.Printf("  Model:      %s\n", *state.Model)
		}
		if len(state.SourceOptions) > 0 {
			fmt.Printf("  Sources:    %v\n", state.SourceOptions)
		}
		return nil
	},
}

var monitorPowerCmd = &cobra.Command{
	Use:   "power <bus> <on|off|standby> [device]",
	Short: "Set monitor power state",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitorSet(args, "power", func(client *netlink.Client, ctx context.Context, bus int) error {
			return client.SetMonitorPower(ctx, bus, args[1])
		})
	},
}

var monitorBrightnessCmd = &cobra.Command{
	Use:   "brightness <bus> <0-100> [device]",
	Short: "Set monitor brightness",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid brightness %q: %w", args[1], err)
		}
		return runMonitorSet(args, "brightness", func(client *netlink.Client, ctx context.Context, bus int) error {
			return client.SetMonitorBrightness(ctx, bus, value)
		})
	},
}

var monitorVolumeCmd = &cobra.Command{
	Use:   "volume <bus> <0-100> [device]",
	Short: "Set monitor volume",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid volume %q: %w", args[1], err)
		}
		return runMonitorSet(args, "volume", func(client *netlink.Client, ctx context.Context, bus int) error {
			return client.SetMonitorVolume(ctx, bus, value)
		})
	},
}

var monitorSourceCmd = &cobra.Command{
	Use:   "source <bus> <input> [device]",
	Short: "Switch monitor input source",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitorSet(args, "source", func(client *netlink.Client, ctx context.Context, bus int) error {
			return client.SetMonitorSource(ctx, bus, args[1])
		})
	},
}

func runMonitorSet(args []string, what string, op func(*netlink.Client, context.Context, int) error) error {
	bus, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid bus %q: %w", args[0], err)
	}
	var target []string
	if len(args) > 2 {
		target = args[2:]
	}
	client, name, err := clientForTarget(target)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	if err := op(client, ctx, bus); err != nil {
		return err
	}
	fmt.Printf("Set %s of monitor %d on %s\n", what, bus, name)
	return nil
}

// browserCmd groups kiosk browser subcommands
var browserCmd = &cobra.Command{
	Use:   "browser",
	Short: "Control the kiosk browser",
}

var browserStatusCmd = &cobra.Command{
	Use:   "status [device]",
	Short: "Show the kiosk browser state",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, name, err := clientForTarget(args)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		state, err := client.GetBrowserStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Browser on %s showing: %s\n", name, state.URL)
		return nil
	},
}

var browserURLCmd = &cobra.Command{
	Use:   "url <url> [device]",
	Short: "Navigate the kiosk browser to a URL",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, name, err := clientForTarget(args[1:])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		if err := client.SetBrowserURL(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Browser on %s navigating to %s\n", name, args[0])
		return nil
	},
}

var browserRefreshCmd = &cobra.Command{
	Use:   "refresh [device]",
	Short: "Reload the current kiosk browser page",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, name, err := clientForTarget(args)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		if err := client.RefreshBrowser(ctx); err != nil {
			return err
		}
		fmt.Printf("Browser on %s refreshed\n", name)
		return nil
	},
}
