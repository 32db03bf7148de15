package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ecommerce-reco/apps/recommendation-service/dao"
	"ecommerce-reco/apps/recommendation-service/model"
	"ecommerce-reco/apps/recommendation-service/service"
	"ecommerce-reco/pkg/config"
)

// stubSignalDAO 只覆盖测试路径用到的方法，未覆盖的方法不会被调用
type stubSignalDAO struct {
	dao.SignalDAO
	popular []model.ScoredEntry
}

func (s *stubSignalDAO) GetPopular(ctx context.Context, limit int64) ([]model.ScoredEntry, error) {
	if limit > 0 && int64(len(s.popular)) > limit {
		return s.popular[:limit], nil
	}
	return s.popular, nil
}

func (s *stubSignalDAO) GetUserInteractions(ctx context.Context, userID string, limit int64) ([]*model.Interaction, error) {
	return nil, nil
}

func (s *stubSignalDAO) AppendInteraction(ctx context.Context, userID string, entry *model.Interaction) error {
	return nil
}

func (s *stubSignalDAO) IncrPopularity(ctx context.Context, productID string, weight float64) error {
	return nil
}

func (s *stubSignalDAO) TouchProfile(ctx context.Context, userID string, at time.Time) error {
	return nil
}

func (s *stubSignalDAO) GetProductMetadata(ctx context.Context, productID string) (*model.ProductMetadata, error) {
	return nil, nil
}

func (s *stubSignalDAO) GetCoOccurrents(ctx context.Context, productID string, limit int64) ([]model.ScoredEntry, error) {
	return nil, nil
}

// stubCache 不命中也不落盘
type stubCache struct{}

func (stubCache) GetRecommendations(ctx context.Context, key string) ([]*model.RecommendedProduct, bool) {
	return nil, false
}

func (stubCache) SetRecommendations(ctx context.Context, key string, recs []*model.RecommendedProduct, ttl time.Duration) error {
	return nil
}

func newTestRouter(signals dao.SignalDAO) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.RecommendConfig{
		CacheTTL:             time.Hour,
		TrendingCacheTTL:     5 * time.Minute,
		MinInteractionsForCF: 5,
		InteractionWeights:   config.DefaultInteractionWeights(),
	}
	svc := service.NewService(signals, stubCache{}, nil, cfg, nil)
	h := NewHTTPHandler(svc, nil)

	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLimitValidation(t *testing.T) {
	r := newTestRouter(&stubSignalDAO{})

	cases := []struct {
		path           string
		expectedStatus int
	}{
		{"/api/v1/recommendations/trending?limit=0", http.StatusBadRequest},
		{"/api/v1/recommendations/trending?limit=51", http.StatusBadRequest},
		{"/api/v1/recommendations/trending?limit=-3", http.StatusBadRequest},
		{"/api/v1/recommendations/trending?limit=abc", http.StatusBadRequest},
		{"/api/v1/recommendations/trending?limit=1", http.StatusOK},
		{"/api/v1/recommendations/trending?limit=50", http.StatusOK},
		{"/api/v1/recommendations/trending", http.StatusOK},
		{"/api/v1/recommendations/personalized/u1?limit=51", http.StatusBadRequest},
		{"/api/v1/recommendations/similar/p1?limit=0", http.StatusBadRequest},
		{"/api/v1/recommendations/recently-viewed/u1?limit=51", http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := doRequest(r, http.MethodGet, tc.path, "")
		if w.Code != tc.expectedStatus {
			t.Errorf("GET %s 状态码 = %d, 期望 %d", tc.path, w.Code, tc.expectedStatus)
		}
	}
}

func TestGetTrending_ResponseShape(t *testing.T) {
	signals := &stubSignalDAO{popular: []model.ScoredEntry{
		{Member: "p1", Score: 12},
		{Member: "p2", Score: 7},
	}}
	r := newTestRouter(signals)

	w := doRequest(r, http.MethodGet, "/api/v1/recommendations/trending?limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 期望 200", w.Code)
	}

	var resp struct {
		Recommendations []struct {
			ProductID string  `json:"product_id"`
			Score     float64 `json:"score"`
			Reason    string  `json:"reason"`
		} `json:"recommendations"`
		Strategy string `json:"strategy"`
		Total    int    `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Strategy != model.StrategyTrending {
		t.Errorf("strategy = %q, 期望 %q", resp.Strategy, model.StrategyTrending)
	}
	if resp.Total != 2 || len(resp.Recommendations) != 2 {
		t.Fatalf("total = %d, 结果 %d 条, 期望各为 2", resp.Total, len(resp.Recommendations))
	}
	if resp.Recommendations[0].ProductID != "p1" || resp.Recommendations[0].Reason != model.ReasonTrending {
		t.Errorf("首位 = %+v, 期望 p1/%s", resp.Recommendations[0], model.ReasonTrending)
	}
}

func TestTrackInteraction_Validation(t *testing.T) {
	r := newTestRouter(&stubSignalDAO{})

	cases := []struct {
		body           string
		expectedStatus int
	}{
		{`{"user_id":"u1","product_id":"p1","interaction_type":"view"}`, http.StatusOK},
		{`{"user_id":"u1","product_id":"p1","interaction_type":"teleport"}`, http.StatusBadRequest},
		{`{"product_id":"p1","interaction_type":"view"}`, http.StatusBadRequest},
		{`{"user_id":"u1","interaction_type":"view"}`, http.StatusBadRequest},
		{`not-json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := doRequest(r, http.MethodPost, "/api/v1/recommendations/track", tc.body)
		if w.Code != tc.expectedStatus {
			t.Errorf("POST track %s 状态码 = %d, 期望 %d", tc.body, w.Code, tc.expectedStatus)
		}
	}
}

func TestTrackInteraction_OutcomeInResponse(t *testing.T) {
	r := newTestRouter(&stubSignalDAO{})

	body := `{"user_id":"u1","product_id":"p1","interaction_type":"view"}`
	w := doRequest(r, http.MethodPost, "/api/v1/recommendations/track", body)
	if w.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 期望 200", w.Code)
	}

	var resp struct {
		Status  string              `json:"status"`
		Outcome *model.TrackOutcome `json:"outcome"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Status != "tracked" {
		t.Errorf("status = %q, 期望 tracked", resp.Status)
	}
	if resp.Outcome == nil || !resp.Outcome.AllSucceeded() {
		t.Errorf("outcome = %+v, 期望所有步骤成功", resp.Outcome)
	}
}

func TestFrequentlyBoughtTogether_Validation(t *testing.T) {
	r := newTestRouter(&stubSignalDAO{})

	cases := []struct {
		body           string
		expectedStatus int
	}{
		{`{"product_ids":["p1"],"limit":5}`, http.StatusOK},
		{`{"product_ids":["p1"]}`, http.StatusOK},
		{`{"product_ids":["p1"],"limit":21}`, http.StatusBadRequest},
		{`{"product_ids":["p1"],"limit":-1}`, http.StatusBadRequest},
		{`{"limit":5}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := doRequest(r, http.MethodPost, "/api/v1/recommendations/frequently-bought-together", tc.body)
		if w.Code != tc.expectedStatus {
			t.Errorf("POST fbt %s 状态码 = %d, 期望 %d", tc.body, w.Code, tc.expectedStatus)
		}
	}
}
