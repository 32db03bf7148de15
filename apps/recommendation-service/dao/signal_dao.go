package dao

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"ecommerce-reco/apps/recommendation-service/model"
	"ecommerce-reco/pkg/redis"
)

// redisSignalDAO SignalDAO的Redis实现
type redisSignalDAO struct {
	client *redis.RedisClient
}

// NewSignalDAO 创建信号DAO
func NewSignalDAO(client *redis.RedisClient) SignalDAO {
	return &redisSignalDAO{client: client}
}

// AppendInteraction 追加交互日志并裁剪、续期
func (d *redisSignalDAO) AppendInteraction(ctx context.Context, userID string, entry *model.Interaction) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("序列化交互日志失败: %v", err)
	}

	key := model.KeyUserInteractions(userID)
	if err := d.client.LPush(ctx, key, string(data)); err != nil {
		return fmt.Errorf("写入交互日志失败: %v", err)
	}
	if err := d.client.LTrim(ctx, key, 0, model.MaxInteractionLogSize-1); err != nil {
		return fmt.Errorf("裁剪交互日志失败: %v", err)
	}
	if err := d.client.Expire(ctx, key, model.InteractionLogTTL); err != nil {
		return fmt.Errorf("设置交互日志过期时间失败: %v", err)
	}
	return nil
}

// GetUserInteractions 读取用户最近的交互，最新在前；无法解析的条目跳过
func (d *redisSignalDAO) GetUserInteractions(ctx context.Context, userID string, limit int64) ([]*model.Interaction, error) {
	raw, err := d.client.LRange(ctx, model.KeyUserInteractions(userID), 0, limit-1)
	if err != nil {
		return nil, fmt.Errorf("读取交互日志失败: %v", err)
	}

	interactions := make([]*model.Interaction, 0, len(raw))
	for _, item := range raw {
		var entry model.Interaction
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		interactions = append(interactions, &entry)
	}
	return interactions, nil
}

// IncrPopularity 按权重累加全局热度
func (d *redisSignalDAO) IncrPopularity(ctx context.Context, productID string, weight float64) error {
	return d.client.ZIncrBy(ctx, model.KeyPopularity, weight, productID)
}

// GetPopular 获取全局热度榜前limit名
func (d *redisSignalDAO) GetPopular(ctx context.Context, limit int64) ([]model.ScoredEntry, error) {
	return d.zrevRange(ctx, model.KeyPopularity, limit)
}

// IncrCoOccurrence 对称累加两个商品的共现计数，并刷新滑动过期时间
func (d *redisSignalDAO) IncrCoOccurrence(ctx context.Context, productID, otherID string) error {
	keyA := model.KeyCoOccurrence(productID)
	keyB := model.KeyCoOccurrence(otherID)

	if err := d.client.ZIncrBy(ctx, keyA, 1, otherID); err != nil {
		return err
	}
	if err := d.client.ZIncrBy(ctx, keyB, 1, productID); err != nil {
		return err
	}
	if err := d.client.Expire(ctx, keyA, model.CoOccurrenceTTL); err != nil {
		return err
	}
	return d.client.Expire(ctx, keyB, model.CoOccurrenceTTL)
}

// GetCoOccurrents 获取与某商品共现最多的前limit个商品
func (d *redisSignalDAO) GetCoOccurrents(ctx context.Context, productID string, limit int64) ([]model.ScoredEntry, error) {
	return d.zrevRange(ctx, model.KeyCoOccurrence(productID), limit)
}

// TouchProfile 累加交互计数并更新活跃时间
func (d *redisSignalDAO) TouchProfile(ctx context.Context, userID string, at time.Time) error {
	key := model.KeyUserProfile(userID)
	if err := d.client.HIncrBy(ctx, key, "interaction_count", 1); err != nil {
		return err
	}
	if err := d.client.HSet(ctx, key, "last_active", at.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return d.client.Expire(ctx, key, model.UserProfileTTL)
}

// GetProfile 读取用户画像，画像不存在时返回nil
func (d *redisSignalDAO) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	fields, err := d.client.HGetAll(ctx, model.KeyUserProfile(userID))
	if err != nil {
		return nil, fmt.Errorf("读取用户画像失败: %v", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	profile := &model.UserProfile{UserID: userID}
	if v, ok := fields["interaction_count"]; ok {
		profile.InteractionCount, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := fields["last_active"]; ok {
		profile.LastActive, _ = time.Parse(time.RFC3339, v)
	}
	return profile, nil
}

// AddPurchased 将商品加入已购集合并续期
func (d *redisSignalDAO) AddPurchased(ctx context.Context, userID, productID string) error {
	key := model.KeyPurchased(userID)
	if err := d.client.SAdd(ctx, key, productID); err != nil {
		return err
	}
	return d.client.Expire(ctx, key, model.PurchasedSetTTL)
}

// GetPurchased 读取用户的已购商品集合
func (d *redisSignalDAO) GetPurchased(ctx context.Context, userID string) (map[string]struct{}, error) {
	members, err := d.client.SMembers(ctx, model.KeyPurchased(userID))
	if err != nil {
		return nil, fmt.Errorf("读取已购集合失败: %v", err)
	}

	purchased := make(map[string]struct{}, len(members))
	for _, m := range members {
		purchased[m] = struct{}{}
	}
	return purchased, nil
}

// IncrCategoryAffinity 按权重累加用户的类目偏好
func (d *redisSignalDAO) IncrCategoryAffinity(ctx context.Context, userID, categoryID string, weight float64) error {
	key := model.KeyUserCategories(userID)
	if err := d.client.ZIncrBy(ctx, key, weight, categoryID); err != nil {
		return err
	}
	return d.client.Expire(ctx, key, model.UserProfileTTL)
}

// GetPreferredCategories 获取用户偏好最高的前limit个类目
func (d *redisSignalDAO) GetPreferredCategories(ctx context.Context, userID string, limit int64) ([]model.ScoredEntry, error) {
	return d.zrevRange(ctx, model.KeyUserCategories(userID), limit)
}

// IncrCategoryPopularity 按权重累加类目内商品热度
func (d *redisSignalDAO) IncrCategoryPopularity(ctx context.Context, categoryID, productID string, weight float64) error {
	return d.client.ZIncrBy(ctx, model.KeyCategoryPopular(categoryID), weight, productID)
}

// GetCategoryPopular 获取类目内热度最高的前limit个商品
func (d *redisSignalDAO) GetCategoryPopular(ctx context.Context, categoryID string, limit int64) ([]model.ScoredEntry, error) {
	return d.zrevRange(ctx, model.KeyCategoryPopular(categoryID), limit)
}

// UpsertProductMetadata 写入商品元数据并维护类目成员集合
func (d *redisSignalDAO) UpsertProductMetadata(ctx context.Context, meta *model.ProductMetadata) error {
	key := model.KeyProductMeta(meta.ProductID)
	fields := map[string]interface{}{
		"product_id": meta.ProductID,
		"name":       meta.Name,
		"category":   meta.CategoryID,
		"brand":      meta.BrandID,
		"price":      strconv.FormatFloat(meta.Price, 'f', -1, 64),
		"image_url":  meta.ImageURL,
	}
	if err := d.client.HMSet(ctx, key, fields); err != nil {
		return fmt.Errorf("写入商品元数据失败: %v", err)
	}
	if err := d.client.Expire(ctx, key, model.ProductMetaTTL); err != nil {
		return err
	}

	if meta.CategoryID != "" {
		if err := d.client.SAdd(ctx, model.KeyCategoryProducts(meta.CategoryID), meta.ProductID); err != nil {
			return fmt.Errorf("维护类目商品集合失败: %v", err)
		}
	}
	return nil
}

// GetProductMetadata 读取商品元数据，不存在时返回nil
func (d *redisSignalDAO) GetProductMetadata(ctx context.Context, productID string) (*model.ProductMetadata, error) {
	fields, err := d.client.HGetAll(ctx, model.KeyProductMeta(productID))
	if err != nil {
		return nil, fmt.Errorf("读取商品元数据失败: %v", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	meta := &model.ProductMetadata{
		ProductID:  productID,
		Name:       fields["name"],
		CategoryID: fields["category"],
		BrandID:    fields["brand"],
		ImageURL:   fields["image_url"],
	}
	if v, ok := fields["price"]; ok {
		meta.Price, _ = strconv.ParseFloat(v, 64)
	}
	return meta, nil
}

// GetCategoryMembers 读取类目下的商品，按字典序返回保证遍历稳定
func (d *redisSignalDAO) GetCategoryMembers(ctx context.Context, categoryID string) ([]string, error) {
	members, err := d.client.SMembers(ctx, model.KeyCategoryProducts(categoryID))
	if err != nil {
		return nil, fmt.Errorf("读取类目商品集合失败: %v", err)
	}
	sort.Strings(members)
	return members, nil
}

func (d *redisSignalDAO) zrevRange(ctx context.Context, key string, limit int64) ([]model.ScoredEntry, error) {
	zs, err := d.client.ZRevRangeWithScores(ctx, key, 0, limit-1)
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("读取排行榜失败: %v", err)
	}

	entries := make([]model.ScoredEntry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, model.ScoredEntry{Member: member, Score: z.Score})
	}
	return entries, nil
}
