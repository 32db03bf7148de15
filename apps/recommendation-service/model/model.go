package model

import (
	"fmt"
	"time"
)

// Interaction 一次用户与商品的交互
type Interaction struct {
	UserID    string            `json:"user_id,omitempty"`
	ProductID string            `json:"product_id"`
	Type      string            `json:"type"`
	Score     float64           `json:"score"`
	Timestamp string            `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// UserProfile 用户画像
type UserProfile struct {
	UserID           string    `json:"user_id"`
	InteractionCount int64     `json:"interaction_count"`
	LastActive       time.Time `json:"last_active"`
}

// ProductMetadata 商品元数据
type ProductMetadata struct {
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name,omitempty"`
	CategoryID string  `json:"category_id,omitempty"`
	BrandID    string  `json:"brand_id,omitempty"`
	Price      float64 `json:"price,omitempty"`
	ImageURL   string  `json:"image_url,omitempty"`
}

// RecommendedProduct 一条推荐结果
type RecommendedProduct struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price,omitempty"`
	ImageURL  string  `json:"image_url,omitempty"`
}

// ScoredEntry 排行榜成员及分值，按分值降序返回
type ScoredEntry struct {
	Member string
	Score  float64
}

// TrackOutcome 交互上报各步骤的执行结果，失败步骤互不影响
type TrackOutcome struct {
	LogAppended         bool `json:"log_appended"`
	PopularityUpdated   bool `json:"popularity_updated"`
	CoOccurrenceUpdated bool `json:"co_occurrence_updated"`
	ProfileUpdated      bool `json:"profile_updated"`
}

// AllSucceeded 是否所有步骤均成功
func (o *TrackOutcome) AllSucceeded() bool {
	return o.LogAppended && o.PopularityUpdated && o.CoOccurrenceUpdated && o.ProfileUpdated
}

// InteractionRecord 交互归档记录（PostgreSQL）
type InteractionRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"index;size:64;not null" json:"user_id"`
	ProductID       string    `gorm:"index;size:64;not null" json:"product_id"`
	InteractionType string    `gorm:"size:32;not null" json:"interaction_type"`
	Weight          float64   `gorm:"not null" json:"weight"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (InteractionRecord) TableName() string {
	return "interaction_records"
}

// ValidateInteractionType 校验交互类型
func ValidateInteractionType(interactionType string) error {
	switch interactionType {
	case InteractionTypeView, InteractionTypeAddToCart, InteractionTypeWishlist,
		InteractionTypePurchase, InteractionTypeReview:
		return nil
	default:
		return fmt.Errorf("不支持的交互类型: %s", interactionType)
	}
}
