package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxelstore",
		Name:      "gets_total",
		Help:      "Block reads served.",
	})
	SetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxelstore",
		Name:      "sets_total",
		Help:      "Accepted block writes.",
	})
	ChunksServedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxelstore",
		Name:      "chunks_served_total",
		Help:      "CHUNK_DATA responses sent.",
	})
	SnapshotWritesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxelstore",
		Name:      "snapshot_writes_total",
		Help:      "Snapshots written to disk.",
	})
	SnapshotErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxelstore",
		Name:      "snapshot_errors_total",
		Help:      "Snapshot writes or index records that failed.",
	})
	MirrorUploadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxelstore",
		Name:      "mirror_uploads_total",
		Help:      "Snapshot files uploaded to the mirror bucket.",
	})
	MirrorErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxelstore",
		Name:      "mirror_errors_total",
		Help:      "Mirror uploads that failed after retries.",
	})
	MirrorDropsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxelstore",
		Name:      "mirror_drops_total",
		Help:      "Mirror jobs dropped because the queue stayed full.",
	})

	Sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxelstore",
		Name:      "sessions",
		Help:      "Connected WebSocket sessions.",
	})
	ChunksLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxelstore",
		Name:      "chunks_loaded",
		Help:      "Materialized chunks.",
	})
	Entities = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxelstore",
		Name:      "entities",
		Help:      "Live entity instances across loaded chunks.",
	})
	MirrorQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxelstore",
		Name:      "mirror_queue_depth",
		Help:      "Mirror jobs waiting for an upload worker.",
	})
)

func init() {
	prometheus.MustRegister(
		GetsTotal, SetsTotal, ChunksServedTotal,
		SnapshotWritesTotal, SnapshotErrorsTotal,
		MirrorUploadsTotal, MirrorErrorsTotal, MirrorDropsTotal,
		Sessions, ChunksLoaded, Entities, MirrorQueueDepth,
	)
}

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
