package model

import (
	"fmt"
	"time"
)

// 评价状态
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// 评分范围
const (
	MinRating = 1
	MaxRating = 5
)

// 分页边界
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// TopicReviewEvents 评价事件主题
const TopicReviewEvents = "review-events"

// EventReviewCreated 评价创建事件类型
const EventReviewCreated = "ReviewCreated"

// Review 商品评价
type Review struct {
	ID               string          `bson:"_id,omitempty" json:"id"`
	ProductID        string          `bson:"product_id" json:"product_id"`
	UserID           string          `bson:"user_id" json:"user_id"`
	OrderID          string          `bson:"order_id,omitempty" json:"order_id,omitempty"`
	Rating           int             `bson:"rating" json:"rating"`
	Title            string          `bson:"title,omitempty" json:"title,omitempty"`
	Content          string          `bson:"content" json:"content"`
	Images           []string        `bson:"images,omitempty" json:"images,omitempty"`
	VerifiedPurchase bool            `bson:"verified_purchase" json:"verified_purchase"`
	Status           string          `bson:"status" json:"status"`
	HelpfulCount     int64           `bson:"helpful_count" json:"helpful_count"`
	NotHelpfulCount  int64           `bson:"not_helpful_count" json:"not_helpful_count"`
	SellerResponse   *SellerResponse `bson:"seller_response,omitempty" json:"seller_response,omitempty"`
	CreatedAt        time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `bson:"updated_at" json:"updated_at"`
}

// SellerResponse 商家回复
type SellerResponse struct {
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// RatingSummary 商品评分汇总
type RatingSummary struct {
	ProductID     string           `bson:"_id" json:"product_id"`
	AverageRating float64          `bson:"average_rating" json:"average_rating"`
	TotalReviews  int64            `bson:"total_reviews" json:"total_reviews"`
	Distribution  map[string]int64 `bson:"distribution" json:"distribution"`
	UpdatedAt     time.Time        `bson:"updated_at" json:"updated_at"`
}

// ReviewQuery 评价列表查询条件
type ReviewQuery struct {
	ProductID    string
	UserID       string
	Rating       int
	VerifiedOnly bool
	Page         int64
	PageSize     int64
}

// ReviewCreatedEvent 评价创建事件负载
type ReviewCreatedEvent struct {
	EventType string           `json:"event_type"`
	Data      ReviewCreatedDat `json:"data"`
}

// ReviewCreatedDat 评价创建事件数据
type ReviewCreatedDat struct {
	ReviewID  string `json:"review_id"`
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
}

// Validate 校验评价内容
func (r *Review) Validate() error {
	if r.ProductID == "" {
		return fmt.Errorf("商品ID不能为空")
	}
	if r.UserID == "" {
		return fmt.Errorf("用户ID不能为空")
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("评分必须在%d到%d之间", MinRating, MaxRating)
	}
	if r.Content == "" {
		return fmt.Errorf("评价内容不能为空")
	}
	return nil
}

// ValidateStatus 校验评价状态
func ValidateStatus(status string) error {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return nil
	default:
		return fmt.Errorf("不支持的评价状态: %s", status)
	}
}
