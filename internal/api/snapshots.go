package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dataagent/dataagent/internal/observability"
	"github.com/dataagent/dataagent/internal/snapshot"
	"github.com/dataagent/dataagent/internal/storage"
)

type snapshotRequest struct {
	Name string `json:"name"`
}

type snapshotFile struct {
	TableName     string `json:"table_name"`
	ObjectPath    string `json:"object_path"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

func handleExportSnapshot(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Snapshots == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SNAPSHOTS_NOT_CONFIGURED", "snapshot export is not configured", false, nil)
		return
	}

	var request snapshotRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid snapshot request body", false, map[string]any{"details": err.Error()})
		return
	}
	if err := storage.ValidateSnapshotName(request.Name); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SNAPSHOT_NAME", err.Error(), false, nil)
		return
	}

	files, err := deps.Snapshots.Export(r.Context(), request.Name)
	if err != nil {
		if deps.Logger != nil {
			observability.LoggerWithTrace(r.Context(), deps.Logger).Error("snapshot export failed",
				slog.String("snapshot", request.Name),
				slog.Any("error", err),
			)
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "SNAPSHOT_EXPORT_FAILED", "failed to export snapshot", true, map[string]any{"details": err.Error()})
		return
	}

	out := make([]snapshotFile, 0, len(files))
	for _, file := range files {
		out = append(out, snapshotFile{TableName: file.TableName, ObjectPath: file.ObjectPath, FileSizeBytes: file.FileSizeBytes})
	}
	writeJSON(w, http.StatusCreated, map[string]any{"name": request.Name, "files": out})
}

func handleListSnapshots(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Snapshots == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SNAPSHOTS_NOT_CONFIGURED", "snapshot export is not configured", false, nil)
		return
	}
	summaries, err := deps.Snapshots.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SNAPSHOT_LIST_FAILED", "failed to list snapshots", true, map[string]any{"details": err.Error()})
		return
	}
	if summaries == nil {
		summaries = []snapshot.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": summaries})
}

func handleDeleteSnapshot(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Snapshots == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SNAPSHOTS_NOT_CONFIGURED", "snapshot export is not configured", false, nil)
		return
	}
	name := r.PathValue("name")
	if err := storage.ValidateSnapshotName(name); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SNAPSHOT_NAME", err.Error(), false, nil)
		return
	}
	deleted, err := deps.Snapshots.Delete(r.Context(), name)
	switch {
	case errors.Is(err, snapshot.ErrSnapshotNotFound):
		writeError(r.Context(), w, http.StatusNotFound, "SNAPSHOT_NOT_FOUND", err.Error(), false, map[string]any{"name": name})
		return
	case err != nil:
		writeError(r.Context(), w, http.StatusInternalServerError, "SNAPSHOT_DELETE_FAILED", "failed to delete snapshot", true, map[string]any{"details": err.Error(), "deleted_objects": deleted})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "deleted_objects": deleted})
}
