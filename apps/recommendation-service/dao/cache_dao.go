package dao

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ecommerce-reco/apps/recommendation-service/model"
	"ecommerce-reco/pkg/redis"
)

// redisCacheDAO CacheDAO的Redis实现
type redisCacheDAO struct {
	client *redis.RedisClient
}

// NewCacheDAO 创建结果缓存DAO
func NewCacheDAO(client *redis.RedisClient) CacheDAO {
	return &redisCacheDAO{client: client}
}

// GetRecommendations 读取缓存的推荐结果，未命中或损坏时返回false
func (d *redisCacheDAO) GetRecommendations(ctx context.Context, key string) ([]*model.RecommendedProduct, bool) {
	data, err := d.client.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var recs []*model.RecommendedProduct
	if err := json.Unmarshal([]byte(data), &recs); err != nil {
		return nil, false
	}
	return recs, true
}

// SetRecommendations 缓存推荐结果
func (d *redisCacheDAO) SetRecommendations(ctx context.Context, key string, recs []*model.RecommendedProduct, ttl time.Duration) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("序列化推荐结果失败: %v", err)
	}
	return d.client.Set(ctx, key, string(data), ttl)
}
