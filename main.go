// pulse-console is a terminal console driven by a shared update ticker.
//
// It builds one application context holding an event bus, an update ticker
// that broadcasts "update" on a fixed interval, and named modules that
// refresh when it fires. The console renders with bubbletea; without a
// terminal it runs headless and maintains a JSON health file.
//
// Usage:
//
//	pulse-console [flags]
//	pulse-console headless [flags]
//	pulse-console config [flags]
//	pulse-console version
//
// Flags:
//
//	-c, --config string      Path to configuration file (.toml, .yaml)
//	-i, --interval duration  Update interval override (default from config, 5s)
//	-v, --verbose            Enable debug logging
package main

import "gitlab.com/tinyland/lab/pulse-console/cmd"

func main() {
	cmd.Execute()
}
