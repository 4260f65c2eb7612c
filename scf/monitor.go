package scf

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MonitorIndicator is one custom metric sample attached to a function
// instance.
type MonitorIndicator struct {
	Name  string
	Value float64
}

// SubmitMonitorInput describes a metric submission for a function
// version.
type SubmitMonitorInput struct {
	RegionID     string
	Namespace    string
	FunctionName string
	Version      string

	Indicators []MonitorIndicator

	// Timestamp of the samples; zero means now.
	Timestamp time.Time
}

// announceInstance renders the monitored instance name the monitoring
// product expects.
func announceInstance(namespace, functionName, version string) string {
	parts := []string{namespace, functionName}
	if version != "" {
		parts = append(parts, version)
	}
	return strings.Join(parts, "::")
}

// SubmitMonitorIndicators reports custom metric samples for a
// function through the monitoring product.
func (c *Client) SubmitMonitorIndicators(ctx context.Context, input SubmitMonitorInput) error {
	if input.FunctionName == "" {
		return fmt.Errorf("submit monitor: function name required")
	}
	if len(input.Indicators) == 0 {
		return fmt.Errorf("submit monitor: at least one indicator required")
	}
	regionID := input.RegionID
	if regionID == "" {
		regionID = defaultRegion()
	}
	namespace := input.Namespace
	if namespace == "" {
		namespace = defaultNamespace()
	}
	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	metrics := make([]map[string]interface{}, 0, len(input.Indicators))
	for _, indicator := range input.Indicators {
		if indicator.Name == "" {
			return fmt.Errorf("submit monitor: indicator name required")
		}
		metrics = append(metrics, map[string]interface{}{
			"MetricName": indicator.Name,
			"Value":      indicator.Value,
		})
	}

	return c.ActionForProduct(ctx, monitorProductID, c.monitorEndpoint, regionID,
		"PutMonitorData", monitorAPIVersion, map[string]interface{}{
			"AnnounceInstance":  announceInstance(namespace, input.FunctionName, input.Version),
			"AnnounceTimestamp": timestamp.Unix(),
			"Metrics":           metrics,
		}, nil)
}
