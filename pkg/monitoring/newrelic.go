package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

// NewRelicApp wraps the New Relic application
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		// Return disabled app
		return &NewRelicApp{nil, false}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.Shutdown(timeout)
}

// Custom event helpers

// RecordRideCreated records ride creation
func (nr *NewRelicApp) RecordRideCreated(rideID, department string) {
	nr.RecordCustomEvent("RideCreated", map[string]interface{}{
		"ride_id":    rideID,
		"department": department,
		"timestamp":  time.Now().Unix(),
	})
}

// RecordRideTransition records a lifecycle transition on a ride
func (nr *NewRelicApp) RecordRideTransition(rideID, from, to string) {
	nr.RecordCustomEvent("RideTransition", map[string]interface{}{
		"ride_id":     rideID,
		"from_status": from,
		"to_status":   to,
	})
}

// RecordRideCompleted records ride completion with the actual fare
func (nr *NewRelicApp) RecordRideCompleted(rideID string, actualFare float64) {
	nr.RecordCustomEvent("RideCompleted", map[string]interface{}{
		"ride_id": rideID,
		"fare":    actualFare,
	})
}

// RecordAuditWriteFailure counts audit records that could not be persisted
func (nr *NewRelicApp) RecordAuditWriteFailure() {
	nr.RecordCustomMetric("custom/audit/write_failure", 1)
}

// RecordUserLogin records a successful login
func (nr *NewRelicApp) RecordUserLogin(role string) {
	nr.RecordCustomEvent("UserLogin", map[string]interface{}{
		"role":      role,
		"timestamp": time.Now().Unix(),
	})
}

// IsEnabled returns whether New Relic is enabled
func (nr *NewRelicApp) IsEnabled() bool {
	return nr.enabled
}
