// Package logging provides structured logging for inkwell.
//
// This package wraps a global zap logger with convenience functions for the
// logging patterns used across the editor and the backend server.
//
// # Log Levels
//
//   - Debug: websocket payloads, selection checks, palette transitions
//   - Info: uploads, transforms, HTTP requests, connections
//   - Warn: patches that found no node, retries, recoverable failures
//   - Error: failures that leave visible state behind (failed uploads)
//
// # Specialized Logging
//
//	logging.LogUpload(token, "started", zap.String("name", name))
//	logging.LogTransform("rewrite", "completed", zap.Duration("took", d))
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//
// # Configuration
//
// The server logs to stdout:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// The interactive editor owns the terminal and logs to a file instead:
//
//	logging.InitializeFile(level, filepath.Join(configDir, "inkwell.log"))
//
// When no level is given and INKWELL_LOG_LEVEL is unset, a nop logger is used.
package logging
