// Package tui implements the live dashboard for "netlink watch".
//
// The dashboard is a Bubble Tea model rendering the latest device state:
// connection status, desk height and motion, per-monitor power and input,
// and an event counter. It performs no network I/O itself; the CLI
// registers push-event callbacks on the client and forwards updates into
// the model with Program.Send:
//
//	tui.Run(name, host, func(p *tea.Program) {
//	    client.On(netlink.EventDeskState, func(data map[string]any) {
//	        if state, err := netlink.ParseDeskState(data); err == nil {
//	            p.Send(tui.DeskMsg{State: state})
//	        }
//	    })
//	})
//
// Quit with q, esc or ctrl+c.
package tui
