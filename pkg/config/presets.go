package config

// Widget identifiers understood by the console.
const (
	WidgetStatus  = "status"
	WidgetHost    = "host"
	WidgetModules = "modules"
	WidgetEvents  = "events"
)

var knownWidgets = map[string]bool{
	WidgetStatus:  true,
	WidgetHost:    true,
	WidgetModules: true,
	WidgetEvents:  true,
}

// KnownWidget reports whether id names a built-in widget.
func KnownWidget(id string) bool {
	return knownWidgets[id]
}

// WidgetPreset returns the widget order for a named preset.
// If the name is not recognized, the "dashboard" preset is returned.
func WidgetPreset(name string) []string {
	switch name {
	case "minimal":
		return minimalPreset()
	case "ops":
		return opsPreset()
	case "dashboard":
		return dashboardPreset()
	default:
		return dashboardPreset()
	}
}

// WidgetIDs returns the widgets the console should show, in focus order.
// An explicit widget list wins over the preset.
func (c *Config) WidgetIDs() []string {
	if len(c.Console.Widgets) > 0 {
		return c.Console.Widgets
	}
	return WidgetPreset(c.Console.Preset)
}

// dashboardPreset shows everything.
//
//	[status] [host] [modules] [events]
func dashboardPreset() []string {
	return []string{WidgetStatus, WidgetHost, WidgetModules, WidgetEvents}
}

// minimalPreset shows only the refresh status.
func minimalPreset() []string {
	return []string{WidgetStatus}
}

// opsPreset leads with host metrics and the bus traffic log.
//
//	[host] [events] [status]
func opsPreset() []string {
	return []string{WidgetHost, WidgetEvents, WidgetStatus}
}
