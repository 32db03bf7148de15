package dao

import (
	"context"
	"time"

	"ecommerce-reco/apps/recommendation-service/model"
)

// SignalDAO 推荐信号存取接口（Redis）
type SignalDAO interface {
	// 交互日志
	AppendInteraction(ctx context.Context, userID string, entry *model.Interaction) error
	GetUserInteractions(ctx context.Context, userID string, limit int64) ([]*model.Interaction, error)

	// 全局热度
	IncrPopularity(ctx context.Context, productID string, weight float64) error
	GetPopular(ctx context.Context, limit int64) ([]model.ScoredEntry, error)

	// 商品共现（双向对称更新）
	IncrCoOccurrence(ctx context.Context, productID, otherID string) error
	GetCoOccurrents(ctx context.Context, productID string, limit int64) ([]model.ScoredEntry, error)

	// 用户画像
	TouchProfile(ctx context.Context, userID string, at time.Time) error
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)

	// 已购集合
	AddPurchased(ctx context.Context, userID, productID string) error
	GetPurchased(ctx context.Context, userID string) (map[string]struct{}, error)

	// 类目偏好与类目热度
	IncrCategoryAffinity(ctx context.Context, userID, categoryID string, weight float64) error
	GetPreferredCategories(ctx context.Context, userID string, limit int64) ([]model.ScoredEntry, error)
	IncrCategoryPopularity(ctx context.Context, categoryID, productID string, weight float64) error
	GetCategoryPopular(ctx context.Context, categoryID string, limit int64) ([]model.ScoredEntry, error)

	// 商品元数据
	UpsertProductMetadata(ctx context.Context, meta *model.ProductMetadata) error
	GetProductMetadata(ctx context.Context, productID string) (*model.ProductMetadata, error)
	GetCategoryMembers(ctx context.Context, categoryID string) ([]string, error)
}

// CacheDAO 推荐结果缓存接口
type CacheDAO interface {
	GetRecommendations(ctx context.Context, key string) ([]*model.RecommendedProduct, bool)
	SetRecommendations(ctx context.Context, key string, recs []*model.RecommendedProduct, ttl time.Duration) error
}

// ArchiveDAO 交互归档接口（PostgreSQL）
type ArchiveDAO interface {
	CreateRecord(ctx context.Context, record *model.InteractionRecord) error
	GetUserStats(ctx context.Context, userID string) (map[string]int64, error)
	CleanOldRecords(ctx context.Context, before time.Time) (int64, error)
}
