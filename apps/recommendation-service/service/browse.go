package service

import (
	"context"

	"ecommerce-reco/apps/recommendation-service/model"
	"ecommerce-reco/pkg/logger"
)

// GetTrendingProducts 获取全局热门商品
//
// 热门榜变化快，缓存时间比其他场景短。内部失败降级为空结果。
func (s *Service) GetTrendingProducts(ctx context.Context, limit int64) []*model.RecommendedProduct {
	if cached, ok := s.cache.GetRecommendations(ctx, model.CacheKeyTrending); ok {
		return truncate(cached, limit)
	}

	recs := make([]*model.RecommendedProduct, 0, limit)

	popular, err := s.signals.GetPopular(ctx, limit)
	if err != nil {
		s.logger.Error(ctx, "读取热门榜失败", logger.F("error", err.Error()))
		return recs
	}
	for _, entry := range popular {
		recs = append(recs, &model.RecommendedProduct{
			ProductID: entry.Member,
			Score:     entry.Score,
			Reason:    model.ReasonTrending,
		})
	}

	if err := s.cache.SetRecommendations(ctx, model.CacheKeyTrending, recs, s.cfg.TrendingCacheTTL); err != nil {
		s.logger.Warn(ctx, "缓存热门推荐失败", logger.F("error", err.Error()))
	}
	return recs
}

// GetRecentlyViewed 获取用户最近浏览过的商品，最新在前、去重
func (s *Service) GetRecentlyViewed(ctx context.Context, userID string, limit int64) []*model.RecommendedProduct {
	recs := make([]*model.RecommendedProduct, 0, limit)

	interactions, err := s.signals.GetUserInteractions(ctx, userID, model.InternalReadLimit)
	if err != nil {
		s.logger.Error(ctx, "读取浏览记录失败",
			logger.F("user_id", userID), logger.F("error", err.Error()))
		return recs
	}

	seen := make(map[string]struct{})
	for _, inter := range interactions {
		if int64(len(recs)) >= limit {
			break
		}
		if inter.Type != model.InteractionTypeView {
			continue
		}
		if _, ok := seen[inter.ProductID]; ok {
			continue
		}
		seen[inter.ProductID] = struct{}{}
		recs = append(recs, &model.RecommendedProduct{
			ProductID: inter.ProductID,
			Score:     1.0,
			Reason:    model.ReasonRecentlyViewed,
		})
	}
	return recs
}

// GetFrequentlyBoughtTogether 获取与一组商品经常一起购买的商品
//
// 聚合各输入商品的共现分数，输入商品本身不出现在结果中。
func (s *Service) GetFrequentlyBoughtTogether(ctx context.Context, productIDs []string, limit int64) []*model.RecommendedProduct {
	empty := []*model.RecommendedProduct{}
	if len(productIDs) == 0 {
		return empty
	}

	inputs := make(map[string]struct{}, len(productIDs))
	for _, pid := range productIDs {
		inputs[pid] = struct{}{}
	}

	scores := make(map[string]float64)
	for _, pid := range productIDs {
		neighbors, err := s.signals.GetCoOccurrents(ctx, pid, 2*limit)
		if err != nil {
			s.logger.Error(ctx, "读取商品共现失败",
				logger.F("product_id", pid), logger.F("error", err.Error()))
			return empty
		}
		for _, neighbor := range neighbors {
			if _, ok := inputs[neighbor.Member]; ok {
				continue
			}
			scores[neighbor.Member] += neighbor.Score
		}
	}

	recs := make([]*model.RecommendedProduct, 0, len(scores))
	for productID, score := range scores {
		recs = append(recs, &model.RecommendedProduct{
			ProductID: productID,
			Score:     score,
			Reason:    model.ReasonBoughtTogether,
		})
	}
	sortByScore(recs)
	return truncate(recs, limit)
}
