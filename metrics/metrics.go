// Package metrics defines prometheus metric types and provides convenience
// methods to add accounting to various parts of the decode/transport/
// archive pipeline.
//
// When defining new operations or metrics, these are helpful values to track:
//   - things coming into or going out of the system: frames, files, commands.
//   - the success or error status of any of the above.
//   - the distribution of processing latency.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecodeLatencyHistogram tracks the latency of message.Decode calls,
	// not including time spent reassembling the frame from the socket.
	DecodeLatencyHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "relay_decode_latency_histogram",
			Help: "message.Decode latency distribution (seconds)",
			Buckets: []float64{
				0.00001, 0.0000125, 0.000016, 0.00002, 0.000025, 0.000032, 0.00004, 0.00005,
				0.0001, 0.000125, 0.00016, 0.0002, 0.00025, 0.00032, 0.0004, 0.0005,
				0.001, 0.00125, 0.0016, 0.002, 0.0025, 0.0032, 0.004, 0.005,
				0.01, 0.0125, 0.016, 0.02, 0.025, 0.032, 0.04, 0.05,
				0.1,
			},
		},
	)

	// ReadLatencyHistogram tracks the interval between whole frames
	// arriving on a relay connection.
	ReadLatencyHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_read_interval_histogram",
			Help:    "interval between successive frames on a relay connection (seconds)",
			Buckets: prometheus.LinearBuckets(0, .001, 20),
		},
	)

	// FrameCount counts frames decoded, labeled by whether decode
	// produced objects or aborted (aborted/ok).
	FrameCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_frame_total",
			Help: "The total number of frames decoded, by outcome.",
		}, []string{"outcome"})

	// ErrorCount measures the number of transport/decode errors.
	// Example usage:
	//    metrics.ErrorCount.WithLabelValues("dial").Inc()
	ErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_error_total",
			Help: "The total number of errors encountered.",
		}, []string{"type"})

	// CacheSizeHistogram tracks the number of entities in client.Cache at
	// the end of each cycle.
	CacheSizeHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "relay_cache_count_histogram",
			Help: "client cache entity count histogram",
			Buckets: []float64{
				1, 2, 3, 4, 5, 6, 8,
				10, 12.5, 16, 20, 25, 32, 40, 50, 63, 79,
				100, 125, 160, 200, 250, 320, 400, 500, 630, 790,
				1000, 1250, 1600, 2000, 2500, 3200, 4000,
			},
		})

	// NewFileCount counts the number of archive files created.
	//
	// Example usage:
	//   metrics.NewFileCount.Inc()
	NewFileCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_new_file_total",
			Help: "Number of archive files created.",
		},
	)

	// RecordCount counts the total number of archive records written
	// across all sessions.
	RecordCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_record_total",
			Help: "Number of archive records written.",
		},
	)
)

// init() prints a log message to let the user know that the package has
// been loaded and the metrics registered. The metrics are auto-registered,
// which means they are registered as soon as this package is loaded, and
// the exact time this occurs (and whether this occurs at all in a given
// context) can be opaque.
func init() {
	log.Println("Prometheus metrics in relay.metrics are registered.")
}
