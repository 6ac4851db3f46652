package dto

import "basegraph.app/insight/internal/model"

type FeedbackRequest struct {
	Helpful *bool   `json:"helpful" binding:"required"`
	Comment *string `json:"comment,omitempty"`
}

type InsightListResponse struct {
	Insights []model.GeneratedInsight `json:"insights"`
}

type AcceptanceRateResponse struct {
	Rate float64 `json:"rate"`
}

type RecommendationsResponse struct {
	Recommendations []string `json:"recommendations"`
}

type TrendPointsResponse struct {
	Points []model.TrendPoint `json:"points"`
}

type PurgeResponse struct {
	Purged int `json:"purged"`
}
