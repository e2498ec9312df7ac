package tui

import (
	"gitlab.com/tinyland/lab/pulse-console/pkg/app"
	"gitlab.com/tinyland/lab/pulse-console/pkg/config"
)

// BuildWidgets creates the widgets named by the application's config, in
// order. Unknown IDs are skipped; the host panel becomes a placeholder when
// host collection is disabled.
func BuildWidgets(a *app.App) []Widget {
	cfg := a.Config()

	var widgets []Widget
	for _, id := range cfg.WidgetIDs() {
		switch id {
		case config.WidgetStatus:
			widgets = append(widgets, NewStatusWidget(a.Ticker().Interval()))
		case config.WidgetHost:
			if cfg.Host.Enabled {
				widgets = append(widgets, NewHostWidget())
			} else {
				widgets = append(widgets, NewPlaceholder(id, "Host", "host collection disabled"))
			}
		case config.WidgetModules:
			widgets = append(widgets, NewModulesWidget(a.Modules))
		case config.WidgetEvents:
			widgets = append(widgets, NewEventsWidget(0))
		default:
			a.Logger().Warn("unknown widget", "id", id)
		}
	}
	return widgets
}
