// Package metrics provides Prometheus instrumentation for the slice recorder.
//
// All metrics are prefixed with "slicerec_" and registered on the default
// registry, which cmd/slicerec exposes on /metrics when --metrics-addr is set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics
var (
	FramesIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slicerec_frames_ingested_total",
			Help: "Total number of frames appended to a source buffer",
		},
		[]string{"source"},
	)

	FramesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slicerec_frames_dropped_total",
			Help: "Total number of frames dropped because the recorder was not recording",
		},
	)

	BoundariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slicerec_boundaries_total",
			Help: "Total number of slice boundaries raised by source buffers",
		},
		[]string{"reason"}, // "resolution", "size"
	)

	BoundaryRequestsCoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slicerec_boundary_requests_coalesced_total",
			Help: "Total number of boundary requests absorbed by an earlier finalize",
		},
	)
)

// Slice pipeline metrics
var (
	SlicesFinalizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slicerec_slices_finalized_total",
			Help: "Total number of slices assigned an id and drained",
		},
	)

	SlicesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slicerec_slices_in_flight",
			Help: "Number of slices currently being written, encoded or cleaned up",
		},
	)

	SliceBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slicerec_slice_bytes_written_total",
			Help: "Total number of raw frame bytes written to slice dumps",
		},
	)

	WriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slicerec_write_failures_total",
			Help: "Total number of slices abandoned because of a write failure",
		},
	)
)

// Encoder metrics
var (
	EncodeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slicerec_encode_jobs_total",
			Help: "Total number of encoder invocations",
		},
		[]string{"status"}, // "success", "failure"
	)

	EncodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slicerec_encode_duration_seconds",
			Help:    "Time spent in the external encoder per slice",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	CleanupFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slicerec_cleanup_failures_total",
			Help: "Total number of raw slice directories that could not be removed",
		},
	)

	SlicesPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slicerec_slices_published_total",
			Help: "Total number of slice ready notifications delivered",
		},
	)
)

// Status label values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)
