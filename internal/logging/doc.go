// Package logging provides structured logging for the netlink CLI.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the CLI. Library components take their own
// *zap.Logger; this package wires the shared CLI instance.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (frames, command correlation, discovery)
//   - Info: Normal operations (connections, commands, state changes)
//   - Warn: Non-fatal issues (connection drops, retries, dropped updates)
//   - Error: Fatal issues (startup failures, abandoned reconnects)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Device connected",
//	    zap.String("host", "192.168.1.100"),
//	    zap.String("device_id", "nl-0042"),
//	)
//
// # Configuration
//
// Logging is silent by default so command output stays clean. Set the
// NETLINK_LOG_LEVEL environment variable to enable it:
//
//	NETLINK_LOG_LEVEL=debug netlink desk status office-west
//
// CLI commands initialize it at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Log output goes to stderr so it never mixes with command results on
// stdout.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
