// Package app is the composition root for Explore.
//
// Setup loads the config file, opens the log file and wires the portal
// client, offline cache, area repository and controller together. Run starts
// the controller and hands it to the Bubble Tea UI, serving Prometheus
// metrics alongside when metrics_addr is configured.
//
// The headless helpers on Env drive the same controller without a terminal:
//
//   - ListAreas waits for loading and prints every area with its status
//   - Download requests a download and waits for it to settle
//   - Delete requests removal and confirms the directory is gone
//
// Logs tails the log file without wiring anything else.
//
// Fetch failures never surface from the controller; it keeps retrying, so
// headless callers bound their wait with the context they pass in.
package app
