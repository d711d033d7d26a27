package snapshot

import "github.com/prometheus/client_golang/prometheus"

var (
	exportRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataagent_snapshot_exports_total",
			Help: "Total number of snapshot exports by status.",
		},
		[]string{"status"},
	)
	exportedRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataagent_snapshot_rows_exported_total",
			Help: "Total number of rows written to snapshot parquet files by table.",
		},
		[]string{"table"},
	)
	deletedObjectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dataagent_snapshot_objects_deleted_total",
			Help: "Total snapshot objects removed by snapshot deletes.",
		},
	)
	exportedBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dataagent_snapshot_bytes_written_total",
			Help: "Total parquet bytes uploaded by snapshot exports.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		exportRunsTotal,
		exportedRowsTotal,
		exportedBytesTotal,
		deletedObjectsTotal,
	)
}
