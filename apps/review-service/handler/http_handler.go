package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecommerce-reco/apps/review-service/model"
	"ecommerce-reco/apps/review-service/service"
	"ecommerce-reco/pkg/httpx"
	"ecommerce-reco/pkg/logger"
)

// HTTPHandler 评价服务HTTP处理器
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
	reviews := r.Group("/api/v1/reviews")
	{
		reviews.POST("", h.CreateReview)
		reviews.GET("", h.ListReviews)
		reviews.GET("/:review_id", h.GetReview)
		reviews.POST("/:review_id/vote", h.VoteReview)
		reviews.POST("/:review_id/response", h.RespondToReview)
		reviews.PUT("/:review_id/status", h.ModerateReview)
	}
	r.GET("/api/v1/ratings/:product_id", h.GetRatingSummary)
}

type createReviewRequest struct {
	ProductID string   `json:"product_id" binding:"required"`
	OrderID   string   `json:"order_id"`
	Rating    int      `json:"rating" binding:"required"`
	Title     string   `json:"title"`
	Content   string   `json:"content" binding:"required"`
	Images    []string `json:"images"`
}

// CreateReview 创建评价，用户身份取自登录态
func (h *HTTPHandler) CreateReview(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}

	userID := c.GetString("userID")
	if userID == "" {
		httpx.Error(c, http.StatusUnauthorized, "未登录")
		return
	}

	review := &model.Review{
		ProductID:        req.ProductID,
		UserID:           userID,
		OrderID:          req.OrderID,
		Rating:           req.Rating,
		Title:            req.Title,
		Content:          req.Content,
		Images:           req.Images,
		VerifiedPurchase: req.OrderID != "",
	}

	created, err := h.svc.CreateReview(c.Request.Context(), review)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListReviews 查询评价列表，支持商品或用户维度
func (h *HTTPHandler) ListReviews(c *gin.Context) {
	productID := c.Query("product_id")
	userID := c.Query("user_id")
	page := parseInt64(c.DefaultQuery("page", "1"), 1)
	pageSize := parseInt64(c.DefaultQuery("page_size", "10"), model.DefaultPageSize)

	var (
		reviews []*model.Review
		total   int64
		err     error
	)
	switch {
	case productID != "":
		rating, _ := strconv.Atoi(c.Query("rating"))
		reviews, total, err = h.svc.ListProductReviews(c.Request.Context(), &model.ReviewQuery{
			ProductID:    productID,
			Rating:       rating,
			VerifiedOnly: c.Query("verified_only") == "true",
			Page:         page,
			PageSize:     pageSize,
		})
	case userID != "":
		reviews, total, err = h.svc.ListUserReviews(c.Request.Context(), userID, page, pageSize)
	default:
		httpx.Error(c, http.StatusBadRequest, "product_id或user_id至少提供一个")
		return
	}
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if reviews == nil {
		reviews = []*model.Review{}
	}

	httpx.WriteObject(c, gin.H{
		"reviews":   reviews,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}, nil)
}

// GetReview 查询单条评价
func (h *HTTPHandler) GetReview(c *gin.Context) {
	review, err := h.svc.GetReview(c.Request.Context(), c.Param("review_id"))
	if err != nil {
		httpx.Error(c, http.StatusNotFound, err.Error())
		return
	}
	httpx.WriteObject(c, review, nil)
}

type voteRequest struct {
	Helpful *bool `json:"helpful" binding:"required"`
}

// VoteReview 评价投票
func (h *HTTPHandler) VoteReview(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}

	if err := h.svc.VoteReview(c.Request.Context(), c.Param("review_id"), *req.Helpful); err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	httpx.WriteObject(c, gin.H{"status": "voted"}, nil)
}

type respondRequest struct {
	Content string `json:"content" binding:"required"`
}

// RespondToReview 商家回复评价
func (h *HTTPHandler) RespondToReview(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}

	if err := h.svc.RespondToReview(c.Request.Context(), c.Param("review_id"), req.Content); err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	httpx.WriteObject(c, gin.H{"status": "responded"}, nil)
}

type moderateRequest struct {
	Status string `json:"status" binding:"required"`
}

// ModerateReview 审核评价
func (h *HTTPHandler) ModerateReview(c *gin.Context) {
	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}

	if err := h.svc.ModerateReview(c.Request.Context(), c.Param("review_id"), req.Status); err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	httpx.WriteObject(c, gin.H{"status": "moderated"}, nil)
}

// GetRatingSummary 查询商品评分汇总
func (h *HTTPHandler) GetRatingSummary(c *gin.Context) {
	summary, err := h.svc.GetRatingSummary(c.Request.Context(), c.Param("product_id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	httpx.WriteObject(c, summary, nil)
}

func parseInt64(raw string, def int64) int64 {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		return def
	}
	return v
}
