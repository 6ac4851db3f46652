package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/http/dto"
	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/telemetry"
)

// SignalWriter accepts scanner output. Implemented by source.Ingested.
type SignalWriter interface {
	PutChanges(ctx context.Context, workspaceID string, records []model.ChangeRecord) error
	PutFindings(ctx context.Context, workspaceID string, category model.Category, findings []model.Finding) error
	PutStructure(ctx context.Context, workspaceID string, signals model.StructureSignals) error
	PutFileMetrics(ctx context.Context, metrics model.FileMetrics) error
	PutWorkspaceMetrics(ctx context.Context, workspaceID string, metrics model.FileMetrics) error
}

// TelemetryRecorder accepts instrumentation events. Implemented by telemetry.Registry.
type TelemetryRecorder interface {
	RecordInference(e telemetry.InferenceEvent) error
	RecordTraining(e telemetry.TrainingEvent) error
	RecordInteraction(e telemetry.InteractionEvent) error
}

type IngestHandler struct {
	signals   SignalWriter
	telemetry TelemetryRecorder
}

func NewIngestHandler(signals SignalWriter, telemetry TelemetryRecorder) *IngestHandler {
	return &IngestHandler{signals: signals, telemetry: telemetry}
}

func bindIngest[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		slog.WarnContext(c.Request.Context(), "invalid ingest request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func withWorkspace(c *gin.Context, workspaceID string) context.Context {
	return logger.WithLogFields(c.Request.Context(), logger.LogFields{
		WorkspaceID: &workspaceID,
		Component:   "insight.http.ingest",
	})
}

func (h *IngestHandler) Changes(c *gin.Context) {
	var req dto.IngestChangesRequest
	if !bindIngest(c, &req) {
		return
	}
	if err := model.ValidateID("workspace", req.WorkspaceID); err != nil {
		respondError(c, err, "ingest changes")
		return
	}
	ctx := withWorkspace(c, req.WorkspaceID)

	if err := h.signals.PutChanges(ctx, req.WorkspaceID, req.Changes); err != nil {
		respondError(c, err, "ingest changes")
		return
	}
	slog.InfoContext(ctx, "changes ingested", "count", len(req.Changes))
	c.JSON(http.StatusAccepted, dto.IngestResponse{Accepted: len(req.Changes)})
}

func (h *IngestHandler) Findings(c *gin.Context) {
	var req dto.IngestFindingsRequest
	if !bindIngest(c, &req) {
		return
	}
	if err := model.ValidateID("workspace", req.WorkspaceID); err != nil {
		respondError(c, err, "ingest findings")
		return
	}
	ctx := withWorkspace(c, req.WorkspaceID)

	if err := h.signals.PutFindings(ctx, req.WorkspaceID, req.Category, req.Findings); err != nil {
		respondError(c, err, "ingest findings")
		return
	}
	slog.InfoContext(ctx, "findings ingested", "category", req.Category, "count", len(req.Findings))
	c.JSON(http.StatusAccepted, dto.IngestResponse{Accepted: len(req.Findings)})
}

func (h *IngestHandler) Structure(c *gin.Context) {
	var req dto.IngestStructureRequest
	if !bindIngest(c, &req) {
		return
	}
	if err := model.ValidateID("workspace", req.WorkspaceID); err != nil {
		respondError(c, err, "ingest structure")
		return
	}
	ctx := withWorkspace(c, req.WorkspaceID)

	if err := h.signals.PutStructure(ctx, req.WorkspaceID, req.Structure); err != nil {
		respondError(c, err, "ingest structure")
		return
	}
	c.JSON(http.StatusAccepted, dto.IngestResponse{Accepted: 1})
}

func (h *IngestHandler) Metrics(c *gin.Context) {
	var req dto.IngestMetricsRequest
	if !bindIngest(c, &req) {
		return
	}

	var err error
	if req.WorkspaceID != "" {
		if err = model.ValidateID("workspace", req.WorkspaceID); err == nil {
			err = h.signals.PutWorkspaceMetrics(withWorkspace(c, req.WorkspaceID), req.WorkspaceID, req.Metrics)
		}
	} else if err = model.ValidateID("path", req.Metrics.Path); err == nil {
		err = h.signals.PutFileMetrics(c.Request.Context(), req.Metrics)
	}
	if err != nil {
		respondError(c, err, "ingest metrics")
		return
	}
	c.JSON(http.StatusAccepted, dto.IngestResponse{Accepted: 1})
}

func (h *IngestHandler) Inference(c *gin.Context) {
	var e telemetry.InferenceEvent
	if !bindIngest(c, &e) {
		return
	}
	if err := h.telemetry.RecordInference(e); err != nil {
		respondError(c, err, "record inference")
		return
	}
	c.JSON(http.StatusAccepted, dto.IngestResponse{Accepted: 1})
}

func (h *IngestHandler) Training(c *gin.Context) {
	var e telemetry.TrainingEvent
	if !bindIngest(c, &e) {
		return
	}
	if err := h.telemetry.RecordTraining(e); err != nil {
		respondError(c, err, "record training")
		return
	}
	c.JSON(http.StatusAccepted, dto.IngestResponse{Accepted: 1})
}

func (h *IngestHandler) Interaction(c *gin.Context) {
	var e telemetry.InteractionEvent
	if !bindIngest(c, &e) {
		return
	}
	if err := h.telemetry.RecordInteraction(e); err != nil {
		respondError(c, err, "record interaction")
		return
	}
	c.JSON(http.StatusAccepted, dto.IngestResponse{Accepted: 1})
}
