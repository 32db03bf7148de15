package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecommerce-reco/apps/recommendation-service/converter"
	"ecommerce-reco/apps/recommendation-service/model"
	"ecommerce-reco/apps/recommendation-service/service"
	tracecontext "ecommerce-reco/pkg/context"
	"ecommerce-reco/pkg/httpx"
	"ecommerce-reco/pkg/logger"
)

// HTTPHandler 推荐服务HTTP处理器
type HTTPHandler struct {
	svc    *service.Service
	logger logger.Logger
}

// NewHTTPHandler 创建HTTP处理器
func NewHTTPHandler(svc *service.Service, log logger.Logger) *HTTPHandler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &HTTPHandler{svc: svc, logger: log}
}

// RegisterRoutes 注册路由
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/recommendations")
	{
		api.GET("/personalized/:user_id", h.GetPersonalized)
		api.GET("/similar/:product_id", h.GetSimilar)
		api.GET("/trending", h.GetTrending)
		api.GET("/recently-viewed/:user_id", h.GetRecentlyViewed)
		api.POST("/frequently-bought-together", h.GetFrequentlyBoughtTogether)
		api.POST("/track", h.TrackInteraction)
		api.GET("/stats/:user_id", h.GetUserStats)
	}
}

// GetPersonalized 个性化推荐
func (h *HTTPHandler) GetPersonalized(c *gin.Context) {
	userID := c.Param("user_id")
	limit, ok := h.parseLimit(c, model.DefaultLimit, model.MaxLimit)
	if !ok {
		return
	}
	excludePurchased := c.DefaultQuery("exclude_purchased", "true") != "false"

	ctx := tracecontext.WithUserID(c.Request.Context(), userID)
	tracecontext.AnnotateSpan(ctx)

	recs := h.svc.GetPersonalizedRecommendations(ctx, userID, limit, excludePurchased)
	httpx.WriteObject(c, converter.BuildUserResponse(userID, model.StrategyPersonalized, recs), nil)
}

// GetSimilar 相似商品推荐
func (h *HTTPHandler) GetSimilar(c *gin.Context) {
	productID := c.Param("product_id")
	limit, ok := h.parseLimit(c, model.DefaultLimit, model.MaxLimit)
	if !ok {
		return
	}

	ctx := tracecontext.WithProductID(c.Request.Context(), productID)
	tracecontext.AnnotateSpan(ctx)

	recs := h.svc.GetSimilarProducts(ctx, productID, limit)
	httpx.WriteObject(c, converter.BuildProductResponse(productID, model.StrategySimilar, recs), nil)
}

// GetTrending 热门商品推荐
func (h *HTTPHandler) GetTrending(c *gin.Context) {
	limit, ok := h.parseLimit(c, model.DefaultLimit, model.MaxLimit)
	if !ok {
		return
	}

	recs := h.svc.GetTrendingProducts(c.Request.Context(), limit)
	httpx.WriteObject(c, &converter.RecommendationResponse{
		Recommendations: recs,
		Strategy:        model.StrategyTrending,
		Total:           len(recs),
	}, nil)
}

// GetRecentlyViewed 最近浏览
func (h *HTTPHandler) GetRecentlyViewed(c *gin.Context) {
	userID := c.Param("user_id")
	limit, ok := h.parseLimit(c, model.DefaultLimit, model.MaxLimit)
	if !ok {
		return
	}

	recs := h.svc.GetRecentlyViewed(c.Request.Context(), userID, limit)
	httpx.WriteObject(c, converter.BuildUserResponse(userID, model.StrategyRecentlyViewed, recs), nil)
}

type fbtRequest struct {
	ProductIDs []string `json:"product_ids" binding:"required"`
	Limit      int64    `json:"limit"`
}

// GetFrequentlyBoughtTogether 购物车搭配推荐
func (h *HTTPHandler) GetFrequentlyBoughtTogether(c *gin.Context) {
	var req fbtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}
	if req.Limit == 0 {
		req.Limit = model.DefaultFBTLimit
	}
	if req.Limit < model.MinLimit || req.Limit > model.MaxFBTLimit {
		httpx.Error(c, http.StatusBadRequest, "limit参数超出范围")
		return
	}

	recs := h.svc.GetFrequentlyBoughtTogether(c.Request.Context(), req.ProductIDs, req.Limit)
	httpx.WriteObject(c, &converter.RecommendationResponse{
		Recommendations: recs,
		Strategy:        model.StrategyBoughtTogether,
		Total:           len(recs),
	}, nil)
}

type trackRequest struct {
	UserID          string            `json:"user_id" binding:"required"`
	ProductID       string            `json:"product_id" binding:"required"`
	InteractionType string            `json:"interaction_type" binding:"required"`
	Metadata        map[string]string `json:"metadata"`
}

// TrackInteraction 上报用户交互
func (h *HTTPHandler) TrackInteraction(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}

	outcome, err := h.svc.TrackInteraction(c.Request.Context(), req.UserID, req.ProductID, req.InteractionType, req.Metadata)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	httpx.WriteObject(c, converter.BuildTrackResponse(outcome), nil)
}

// GetUserStats 用户交互统计
func (h *HTTPHandler) GetUserStats(c *gin.Context) {
	userID := c.Param("user_id")

	stats, err := h.svc.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "查询用户统计失败",
			logger.F("user_id", userID), logger.F("error", err.Error()))
		httpx.Error(c, http.StatusInternalServerError, "查询用户统计失败")
		return
	}
	httpx.WriteObject(c, converter.BuildStatsResponse(userID, stats), nil)
}

// parseLimit 解析并校验limit参数
func (h *HTTPHandler) parseLimit(c *gin.Context, def, max int64) (int64, bool) {
	raw := c.DefaultQuery("limit", strconv.FormatInt(def, 10))
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit < model.MinLimit || limit > max {
		httpx.Error(c, http.StatusBadRequest, "limit参数超出范围")
		return 0, false
	}
	return limit, true
}
