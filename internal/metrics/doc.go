// Package metrics records build and stage measurements. The build pipeline
// talks to the Recorder interface; NoopRecorder is the default and
// PrometheusRecorder exports to a Prometheus registry, which WriteTextfile can
// dump for the node exporter's textfile collector.
package metrics
