// ABOUTME: Prometheus metrics package documentation
// ABOUTME: Describes the func-backed collectors and their labels
// Package metrics exposes bridge counters to Prometheus. Collectors are
// func-backed, so a scrape reads the bridge's current snapshot. Per
// direction series carry a direction="playout|recording" label.
package metrics
