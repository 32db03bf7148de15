package service

import (
	"context"

	"ecommerce-reco/apps/recommendation-service/model"
	"ecommerce-reco/pkg/logger"
)

// GetSimilarProducts 获取与指定商品相似的商品
//
// 首选共现信号，不足时回退到同类目商品。内部失败降级为空结果。
func (s *Service) GetSimilarProducts(ctx context.Context, productID string, limit int64) []*model.RecommendedProduct {
	cacheKey := model.CacheKeySimilar(productID)
	if cached, ok := s.cache.GetRecommendations(ctx, cacheKey); ok {
		return truncate(cached, limit)
	}

	recs := make([]*model.RecommendedProduct, 0, limit)

	coOccurrents, err := s.signals.GetCoOccurrents(ctx, productID, limit)
	if err != nil {
		s.logger.Error(ctx, "读取商品共现失败",
			logger.F("product_id", productID), logger.F("error", err.Error()))
		return recs
	}
	for _, entry := range coOccurrents {
		recs = append(recs, &model.RecommendedProduct{
			ProductID: entry.Member,
			Score:     entry.Score,
			Reason:    model.ReasonBoughtTogether,
		})
	}

	if int64(len(recs)) < limit {
		siblings := s.categorySiblings(ctx, productID, recs, limit)
		recs = append(recs, siblings...)
	}

	sortByScore(recs)
	recs = truncate(recs, limit)

	if err := s.cache.SetRecommendations(ctx, cacheKey, recs, s.cfg.CacheTTL); err != nil {
		s.logger.Warn(ctx, "缓存相似推荐失败",
			logger.F("product_id", productID), logger.F("error", err.Error()))
	}
	return recs
}

// categorySiblings 从同类目商品中补充相似候选
func (s *Service) categorySiblings(ctx context.Context, productID string, existing []*model.RecommendedProduct, limit int64) []*model.RecommendedProduct {
	meta, err := s.signals.GetProductMetadata(ctx, productID)
	if err != nil {
		s.logger.Warn(ctx, "读取商品元数据失败",
			logger.F("product_id", productID), logger.F("error", err.Error()))
		return nil
	}
	if meta == nil || meta.CategoryID == "" {
		return nil
	}

	members, err := s.signals.GetCategoryMembers(ctx, meta.CategoryID)
	if err != nil {
		s.logger.Warn(ctx, "读取类目商品失败",
			logger.F("category_id", meta.CategoryID), logger.F("error", err.Error()))
		return nil
	}

	present := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		present[rec.ProductID] = struct{}{}
	}

	siblings := make([]*model.RecommendedProduct, 0, limit)
	for _, member := range members {
		if int64(len(siblings)) >= limit {
			break
		}
		if member == productID {
			continue
		}
		if _, ok := present[member]; ok {
			continue
		}
		siblings = append(siblings, &model.RecommendedProduct{
			ProductID: member,
			Score:     model.CategorySiblingScore,
			Reason:    model.ReasonSameCategory,
		})
	}
	return siblings
}
