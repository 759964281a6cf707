package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrGreenBoutiqueOffices/go-netlink/internal/logging"
	"github.com/MrGreenBoutiqueOffices/go-netlink/internal/tui"
	"github.com/MrGreenBoutiqueOffices/go-netlink/netlink"
)

// watchCmd shows a live dashboard driven by the device's push events
var watchCmd = &cobra.Command{
	Use:   "watch [device]",
	Short: "Live dashboard of desk and monitor state",
	Long: `Show a live dashboard fed by the device's event socket.

The dashboard updates as the device pushes desk, monitor and system state.
If the connection drops it reconnects automatically with backoff. Quit
with q, esc or ctrl+c.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, name, err := clientForTarget(args)
	if err != nil {
		return err
	}
	defer client.Disconnect()

	logger := logging.GetLogger()
	stop := make(chan struct{})

	err = tui.Run(name, client.REST().BaseURL, func(p *tea.Program) {
		client.On(netlink.EventConnected, func(map[string]any) {
			p.Send(tui.ConnectionMsg{Connected: true})
		})
		client.On(netlink.EventDisconnected, func(map[string]any) {
			p.Send(tui.ConnectionMsg{Connected: false})
		})
		client.On(netlink.EventDeskState, func(data map[string]any) {
			if state, err := netlink.ParseDeskState(data); err == nil {
				p.Send(tui.DeskMsg{State: state})
			}
		})
		client.On(netlink.EventMonitorState, func(data map[string]any) {
			if state, err := netlink.ParseMonitorState(data); err == nil {
				p.Send(tui.MonitorMsg{State: state})
			}
		})
		client.On(netlink.EventDeviceInfo, func(data map[string]any) {
			if info, err := netlink.ParseSystemInfo(data); err == nil {
				p.Send(tui.InfoMsg{Info: info})
			}
		})

		// Connect in the background so the dashboard renders immediately.
		// Once up, the reconnect supervisor handles later drops; until
		// then this loop retries the initial dial.
		go func() {
			for {
				ctx, cancel := context.WithTimeout(context.Background(), time.Duration(requestTimeout)*time.Second)
				connectErr := client.Connect(ctx)
				cancel()
				if connectErr == nil {
					return
				}
				if netlink.IsAuthenticationError(connectErr) {
					logger.Error("connect failed", zap.String("device", name), zap.Error(connectErr))
					return
				}
				logger.Warn("connect failed, retrying", zap.String("device", name), zap.Error(connectErr))
				select {
				case <-stop:
					return
				case <-time.After(5 * time.Second):
				}
			}
		}()
	})
	close(stop)
	if err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
