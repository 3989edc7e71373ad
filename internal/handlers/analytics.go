package handlers

import "northgate.capital/web/internal/config"

// Analytics holds client instrumentation configuration surfaced to templates.
type Analytics struct {
	GA4MeasurementID string // e.g. G-XXXXXXXXXX
	GTMContainerID   string // e.g. GTM-XXXXXXX
	SegmentWriteKey  string // Segment browser key
	Debug            bool
}

// Enabled reports whether any provider is configured.
func (a Analytics) Enabled() bool {
	return a.GA4MeasurementID != "" || a.GTMContainerID != "" || a.SegmentWriteKey != ""
}

// AnalyticsFromConfig copies the analytics section of the loaded config.
func AnalyticsFromConfig(cfg config.AnalyticsConfig) Analytics {
	return Analytics{
		GA4MeasurementID: cfg.GA4MeasurementID,
		GTMContainerID:   cfg.GTMContainerID,
		SegmentWriteKey:  cfg.SegmentWriteKey,
		Debug:            cfg.Debug,
	}
}
