package dto

import "basegraph.app/insight/internal/model"

type IngestChangesRequest struct {
	WorkspaceID string               `json:"workspace_id" binding:"required"`
	Changes     []model.ChangeRecord `json:"changes" binding:"required"`
}

type IngestFindingsRequest struct {
	WorkspaceID string          `json:"workspace_id" binding:"required"`
	Category    model.Category  `json:"category" binding:"required"`
	Findings    []model.Finding `json:"findings"`
}

type IngestStructureRequest struct {
	WorkspaceID string                 `json:"workspace_id" binding:"required"`
	Structure   model.StructureSignals `json:"structure"`
}

// IngestMetricsRequest stores per-file metrics, or workspace-wide metrics when WorkspaceID is set.
type IngestMetricsRequest struct {
	WorkspaceID string            `json:"workspace_id,omitempty"`
	Metrics     model.FileMetrics `json:"metrics"`
}

type IngestResponse struct {
	Accepted int `json:"accepted"`
}
