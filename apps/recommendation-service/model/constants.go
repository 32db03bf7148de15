package model

import (
	"fmt"
	"time"
)

// 交互类型
const (
	InteractionTypeView      = "view"
	InteractionTypeAddToCart = "add_to_cart"
	InteractionTypeWishlist  = "wishlist"
	InteractionTypePurchase  = "purchase"
	InteractionTypeReview    = "review"
)

// 推荐策略
const (
	StrategyPersonalized   = "personalized"
	StrategySimilar        = "similar"
	StrategyTrending       = "trending"
	StrategyRecentlyViewed = "recently_viewed"
	StrategyBoughtTogether = "frequently_bought_together"
)

// 推荐理由
const (
	ReasonBoughtTogether  = "Frequently bought together"
	ReasonSameCategory    = "Same category"
	ReasonTrending        = "Trending now"
	ReasonRecentlyViewed  = "Recently viewed"
	ReasonCollaborative   = "Customers like you also bought"
	ReasonSimilarToViewed = "Similar to items you viewed"
	ReasonCategoryPopular = "Popular in your favorite categories"
)

// 信号存储约束
const (
	MaxInteractionLogSize = 1000 // 每个用户交互日志上限
	InternalReadLimit     = 100  // 服务内部读取日志的条数上限
	CoOccurrenceWindow    = 20   // 共现更新时回看的日志条数
	RecentProductsLimit   = 10   // 混排内容信号使用的近期商品数
	SimilarPerProduct     = 5    // 每个近期商品取的相似商品数
	CFSourceProducts      = 10   // 协同过滤使用的近期去重商品数
	CFBlendLimit          = 10   // 混排取协同过滤结果的条数
	CFNeighborsPerProduct = 20   // 每个商品取的共现邻居数
	TopPreferredCategory  = 3    // 类目信号使用的偏好类目数
	CategoryPopularLimit  = 5    // 每个类目取的热门商品数
)

// 混排权重
const (
	ContentBlendFactor   = 0.5 // 相似商品信号叠加系数
	CategoryBlendFactor  = 0.3 // 类目热门信号叠加系数
	CategorySiblingScore = 0.5 // 同类目兜底相似分
)

// TTL
const (
	InteractionLogTTL = 30 * 24 * time.Hour
	CoOccurrenceTTL   = 7 * 24 * time.Hour
	PurchasedSetTTL   = 90 * 24 * time.Hour
	UserProfileTTL    = 30 * 24 * time.Hour
	ProductMetaTTL    = 7 * 24 * time.Hour
	ResultCacheTTL    = time.Hour
	TrendingCacheTTL  = 5 * time.Minute
)

// 接口参数边界
const (
	MinLimit        = 1
	MaxLimit        = 50
	MaxFBTLimit     = 20
	DefaultLimit    = 10
	DefaultFBTLimit = 5
)

// Redis键构造

// KeyUserInteractions 用户交互日志（list，最新在前）
func KeyUserInteractions(userID string) string {
	return fmt.Sprintf("interactions:%s", userID)
}

// KeyPopularity 全局商品热度榜（zset）
const KeyPopularity = "product:popularity"

// KeyCoOccurrence 商品共现关系（zset）
func KeyCoOccurrence(productID string) string {
	return fmt.Sprintf("co_occurrence:%s", productID)
}

// KeyUserProfile 用户画像（hash）
func KeyUserProfile(userID string) string {
	return fmt.Sprintf("user_profile:%s", userID)
}

// KeyUserCategories 用户类目偏好（zset）
func KeyUserCategories(userID string) string {
	return fmt.Sprintf("user_profile:%s:categories", userID)
}

// KeyPurchased 用户已购商品集合（set）
func KeyPurchased(userID string) string {
	return fmt.Sprintf("purchased:%s", userID)
}

// KeyProductMeta 商品元数据（hash）
func KeyProductMeta(productID string) string {
	return fmt.Sprintf("product:%s", productID)
}

// KeyCategoryProducts 类目下商品集合（set）
func KeyCategoryProducts(categoryID string) string {
	return fmt.Sprintf("category:%s:products", categoryID)
}

// KeyCategoryPopular 类目内热度榜（zset）
func KeyCategoryPopular(categoryID string) string {
	return fmt.Sprintf("category:%s:popular", categoryID)
}

// CacheKeyPersonalized 个性化推荐结果缓存
func CacheKeyPersonalized(userID string) string {
	return fmt.Sprintf("recommendations:personalized:%s", userID)
}

// CacheKeySimilar 相似推荐结果缓存
func CacheKeySimilar(productID string) string {
	return fmt.Sprintf("recommendations:similar:%s", productID)
}

// CacheKeyTrending 热门推荐结果缓存
const CacheKeyTrending = "recommendations:trending"
