package converter

import (
	"ecommerce-reco/apps/recommendation-service/model"
)

// RecommendationResponse 推荐接口统一响应
type RecommendationResponse struct {
	UserID          string                      `json:"user_id,omitempty"`
	ProductID       string                      `json:"product_id,omitempty"`
	Recommendations []*model.RecommendedProduct `json:"recommendations"`
	Strategy        string                      `json:"strategy"`
	Total           int                         `json:"total"`
}

// TrackResponse 交互上报响应
type TrackResponse struct {
	Status  string              `json:"status"`
	Outcome *model.TrackOutcome `json:"outcome"`
}

// StatsResponse 用户交互统计响应
type StatsResponse struct {
	UserID string           `json:"user_id"`
	Stats  map[string]int64 `json:"stats"`
}

// BuildUserResponse 构造按用户维度的推荐响应
func BuildUserResponse(userID, strategy string, recs []*model.RecommendedProduct) *RecommendationResponse {
	return &RecommendationResponse{
		UserID:          userID,
		Recommendations: nonNil(recs),
		Strategy:        strategy,
		Total:           len(recs),
	}
}

// BuildProductResponse 构造按商品维度的推荐响应
func BuildProductResponse(productID, strategy string, recs []*model.RecommendedProduct) *RecommendationResponse {
	return &RecommendationResponse{
		ProductID:       productID,
		Recommendations: nonNil(recs),
		Strategy:        strategy,
		Total:           len(recs),
	}
}

// BuildTrackResponse 构造交互上报响应
func BuildTrackResponse(outcome *model.TrackOutcome) *TrackResponse {
	status := "tracked"
	if !outcome.AllSucceeded() {
		status = "partial"
	}
	return &TrackResponse{
		Status:  status,
		Outcome: outcome,
	}
}

// BuildStatsResponse 构造用户统计响应
func BuildStatsResponse(userID string, stats map[string]int64) *StatsResponse {
	if stats == nil {
		stats = map[string]int64{}
	}
	return &StatsResponse{
		UserID: userID,
		Stats:  stats,
	}
}

func nonNil(recs []*model.RecommendedProduct) []*model.RecommendedProduct {
	if recs == nil {
		return []*model.RecommendedProduct{}
	}
	return recs
}
