// Package netlink is a client library for Netlink smart-office device
// controllers. A Netlink device manages a sit/stand desk, DDC-controlled
// monitors and a kiosk browser, and exposes two surfaces: a REST API for
// request/response calls and a WebSocket event channel for commands and
// live state pushes.
//
// # Components
//
// The package offers three entry points:
//   - Client: the unified facade. Wraps REST and the event socket, picks a
//     transport per call, and keeps push-fed caches of the latest device
//     state.
//   - REST: the plain HTTP client, usable standalone when no live feed is
//     needed.
//   - Socket: the event connection with command correlation, callback
//     dispatch and automatic reconnection.
//
// # Usage Example
//
//	client := netlink.NewClient("192.168.1.50", token)
//	if err := client.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Disconnect()
//
//	client.On(netlink.EventDeskState, func(data map[string]any) {
//	    state, err := netlink.ParseDeskState(data)
//	    if err != nil {
//	        return
//	    }
//	    fmt.Printf("desk at %.1f cm\n", state.Height)
//	})
//
//	if err := client.SetDeskHeight(ctx, 110); err != nil {
//	    log.Fatal(err)
//	}
//
// # Transports
//
// Control operations accept an optional transport selector. By default
// (TransportAuto) a command travels over the event socket when it is
// connected and over REST otherwise. TransportWebSocket fails instead of
// falling back; TransportREST always uses HTTP.
//
// # Reconnection
//
// After an unexpected connection loss the Socket retries with exponential
// backoff (2s doubling up to 60s by default). Event subscriptions survive
// reconnects. An authentication rejection stops retrying permanently,
// since a bad token cannot heal on its own.
//
// # Errors
//
// All failures surface as *Error values categorized by ErrorType; use the
// IsConnectionError, IsAuthenticationError, IsTimeoutError, IsCommandError
// and IsDataError predicates (they see through wrapping).
//
// # Discovery
//
// Devices advertise themselves over mDNS as "_netlink._tcp" services.
// Discover and Scanner browse the local network and return Device entries
// built from the advertised TXT records.
package netlink
