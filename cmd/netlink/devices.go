package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/MrGreenBoutiqueOffices/go-netlink/internal/config"
	"github.com/MrGreenBoutiqueOffices/go-netlink/internal/logging"
	"github.com/MrGreenBoutiqueOffices/go-netlink/netlink"
)

var addNickname string

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.AddCommand(devicesAddCmd, devicesListCmd, devicesRemoveCmd, devicesDefaultCmd)

	devicesAddCmd.Flags().StringVar(&addNickname, "nickname", "", "Nickname for the device")
	devicesAddCmd.Flags().IntVar(&scanTimeout, "scan-timeout", 10, "Discovery timeout in seconds")
}

// clientForTarget resolves the device a command addresses and returns a
// client for it plus a display name. An explicit --host wins; otherwise the
// positional device argument (nickname or device id) is looked up in the
// registry, falling back to the configured default device.
func clientForTarget(args []string) (*netlink.Client, string, error) {
	if deviceHost != "" {
		token := deviceToken
		if token == "" {
			var err error
			token, err = promptToken(deviceHost)
			if err != nil {
				return nil, "", err
			}
		}
		client := netlink.NewClient(deviceHost, token,
			netlink.WithPort(devicePort),
			netlink.WithRequestTimeout(time.Duration(requestTimeout)*time.Second),
			netlink.WithLogger(logging.GetLogger()),
		)
		return client, deviceHost, nil
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load device registry: %w", err)
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	} else if registry.Preferences != nil {
		name = registry.Preferences.DefaultDevice
	}
	if name == "" {
		return nil, "", fmt.Errorf("no device specified: name one, set a default with 'netlink devices default', or use --host")
	}

	id, device := registry.Resolve(name)
	if device == nil {
		return nil, "", fmt.Errorf("unknown device %q (register it with 'netlink devices add')", name)
	}

	token := deviceToken
	if token == "" {
		token = device.Token
	}
	if token == "" {
		token, err = promptToken(name)
		if err != nil {
			return nil, "", err
		}
	}

	opts := []netlink.ClientOption{
		netlink.WithRequestTimeout(time.Duration(requestTimeout) * time.Second),
		netlink.WithLogger(logging.GetLogger()),
	}
	if device.Port > 0 {
		opts = append(opts, netlink.WithPort(device.Port))
	}
	if device.WSPath != "" {
		opts = append(opts, netlink.WithClientWSPath(device.WSPath))
	}

	display := device.Nickname
	if display == "" {
		display = id
	}
	return netlink.NewClient(device.Host, token, opts...), display, nil
}

// promptToken reads a bearer token from the terminal without echo.
func promptToken(target string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no token for %s: pass --token or store one with 'netlink devices add'", target)
	}
	fmt.Fprintf(os.Stderr, "Token for %s: ", target)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}

// devicesCmd groups registry management subcommands
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage the local device registry",
	Long: `Manage the registry of known Netlink devices.

Registered devices can be addressed by nickname or device id in every
command. The registry lives in the user config directory and stores the
bearer token for each device (file permissions 0600).`,
}

var devicesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a device in the local registry",
	Long: `Register a device so later commands can address it by nickname.

With --host the device is contacted directly; otherwise the network is
scanned via mDNS and a single discovered device is registered. The bearer
token is taken from --token or prompted for, then verified against the
device before saving.`,
	Example: `  # Discover and register the only device on the network
  netlink devices add --nickname office-west

  # Register a device by address
  netlink devices add --host 192.168.1.50 --nickname lab`,
	Args: cobra.NoArgs,
	RunE: runDevicesAdd,
}

func runDevicesAdd(cmd *cobra.Command, args []string) error {
	host := deviceHost
	port := devicePort
	wsPath := ""
	model := ""

	if host == "" {
		fmt.Printf("Scanning for Netlink devices (timeout: %ds)...\n", scanTimeout)
		found, err := netlink.Discover(cmd.Context(), time.Duration(scanTimeout)*time.Second)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		switch len(found) {
		case 0:
			return fmt.Errorf("no devices found: try --host to address the device directly")
		case 1:
			device := found[0]
			host, port, wsPath, model = device.Host, device.Port, device.WSPath, device.Model
			fmt.Printf("Found %s at %s:%d\n", device.Name, host, port)
		default:
			fmt.Printf("Found %d devices:\n", len(found))
			for _, device := range found {
				fmt.Printf("  %s at %s:%d (%s)\n", device.Name, device.Host, device.Port, device.DeviceID)
			}
			return fmt.Errorf("multiple devices found: pick one with --host")
		}
	}

	token := deviceToken
	if token == "" {
		var err error
		token, err = promptToken(host)
		if err != nil {
			return err
		}
	}

	opts := []netlink.ClientOption{
		netlink.WithPort(port),
		netlink.WithRequestTimeout(time.Duration(requestTimeout) * time.Second),
		netlink.WithLogger(logging.GetLogger()),
	}
	if wsPath != "" {
		opts = append(opts, netlink.WithClientWSPath(wsPath))
	}
	client := netlink.NewClient(host, token, opts...)

	ctx, cancel := commandContext()
	defer cancel()

	info, err := client.GetDeviceInfo(ctx)
	if err != nil {
		return fmt.Errorf("could not verify device at %s: %w", host, err)
	}
	if model == "" {
		model = info.Model
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load device registry: %w", err)
	}

	entry := registry.EnsureDevice(info.DeviceID)
	entry.Model = model
	if wsPath != "" {
		entry.WSPath = wsPath
	}
	registry.UpdateDeviceLastSeen(info.DeviceID, host, port)
	registry.SetDeviceToken(info.DeviceID, token)
	if addNickname != "" {
		registry.SetDeviceNickname(info.DeviceID, addNickname)
	}
	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save device registry: %w", err)
	}

	name := addNickname
	if name == "" {
		name = info.DeviceID
	}
	fmt.Printf("Registered %s (%s, firmware %s) at %s:%d\n", name, info.Model, info.Version, host, port)
	return nil
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load device registry: %w", err)
		}
		if len(registry.Devices) == 0 {
			fmt.Println("No devices registered. Use 'netlink devices add' to register one.")
			return nil
		}

		ids := make([]string, 0, len(registry.Devices))
		for id := range registry.Devices {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		defaultDevice := ""
		if registry.Preferences != nil {
			defaultDevice = registry.Preferences.DefaultDevice
		}

		for _, id := range ids {
			device := registry.Devices[id]
			marker := " "
			if id == defaultDevice || (device.Nickname != "" && device.Nickname == defaultDevice) {
				marker = "*"
			}
			name := device.Nickname
			if name == "" {
				name = "-"
			}
			lastSeen := "never"
			if !device.LastSeen.IsZero() {
				lastSeen = device.LastSeen.Format("2006-01-02 15:04")
			}
			fmt.Printf("%s %-20s %-28s %-21s %s (last seen %s)\n",
				marker, name, id, fmt.Sprintf("%s:%d", device.Host, device.Port), device.Model, lastSeen)
		}
		return nil
	},
}

var devicesRemoveCmd = &cobra.Command{
	Use:   "remove <device>",
	Short: "Remove a device from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load device registry: %w", err)
		}
		id, device := registry.Resolve(args[0])
		if device == nil {
			return fmt.Errorf("unknown device %q", args[0])
		}
		registry.RemoveDevice(id)
		if registry.Preferences != nil &&
			(registry.Preferences.DefaultDevice == id || registry.Preferences.DefaultDevice == device.Nickname) {
			registry.Preferences.DefaultDevice = ""
		}
		if err := registry.Save(); err != nil {
			return fmt.Errorf("failed to save device registry: %w", err)
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var devicesDefaultCmd = &cobra.Command{
	Use:   "default <device>",
	Short: "Set the default device used when a command names none",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load device registry: %w", err)
		}
		_, device := registry.Resolve(args[0])
		if device == nil {
			return fmt.Errorf("unknown device %q", args[0])
		}
		if registry.Preferences == nil {
			registry.Preferences = &config.Preferences{}
		}
		registry.Preferences.DefaultDevice = args[0]
		if err := registry.Save(); err != nil {
			return fmt.Errorf("failed to save device registry: %w", err)
		}
		fmt.Printf("Default device set to %s\n", args[0])
		return nil
	},
}
