package service

import (
	"context"

	"ecommerce-reco/apps/recommendation-service/model"
	"ecommerce-reco/pkg/logger"
)

// GetPersonalizedRecommendations 获取用户的个性化推荐
//
// 三路信号混排：近期商品的相似推荐、协同过滤、偏好类目热门。
// 无任何交互记录（冷启动）或构建失败时降级为热门推荐。
func (s *Service) GetPersonalizedRecommendations(ctx context.Context, userID string, limit int64, excludePurchased bool) []*model.RecommendedProduct {
	cacheKey := model.CacheKeyPersonalized(userID)
	if cached, ok := s.cache.GetRecommendations(ctx, cacheKey); ok {
		return truncate(cached, limit)
	}

	recs, err := s.buildPersonalized(ctx, userID, limit, excludePurchased)
	if err != nil {
		s.logger.Error(ctx, "构建个性化推荐失败，降级为热门推荐",
			logger.F("user_id", userID), logger.F("error", err.Error()))
		return s.GetTrendingProducts(ctx, limit)
	}
	if recs == nil {
		// 冷启动：无交互记录，不写个性化缓存
		return s.GetTrendingProducts(ctx, limit)
	}

	if err := s.cache.SetRecommendations(ctx, cacheKey, recs, s.cfg.CacheTTL); err != nil {
		s.logger.Warn(ctx, "缓存个性化推荐失败",
			logger.F("user_id", userID), logger.F("error", err.Error()))
	}
	return recs
}

// buildPersonalized 构建混排结果；冷启动返回(nil, nil)
func (s *Service) buildPersonalized(ctx context.Context, userID string, limit int64, excludePurchased bool) ([]*model.RecommendedProduct, error) {
	interactions, err := s.signals.GetUserInteractions(ctx, userID, model.InternalReadLimit)
	if err != nil {
		return nil, err
	}
	if len(interactions) == 0 {
		return nil, nil
	}

	excluded := map[string]struct{}{}
	if excludePurchased {
		excluded, err = s.signals.GetPurchased(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	blended := make(map[string]*model.RecommendedProduct)

	// 信号一：近期交互商品的相似商品
	recent := interactions
	if len(recent) > model.RecentProductsLimit {
		recent = recent[:model.RecentProductsLimit]
	}
	for _, inter := range recent {
		for _, sim := range s.GetSimilarProducts(ctx, inter.ProductID, model.SimilarPerProduct) {
			if _, skip := excluded[sim.ProductID]; skip {
				continue
			}
			if existing, ok := blended[sim.ProductID]; ok {
				existing.Score += sim.Score * model.ContentBlendFactor
			} else {
				clone := cloneRec(sim)
				clone.Reason = model.ReasonSimilarToViewed
				blended[sim.ProductID] = clone
			}
		}
	}

	// 信号二：协同过滤，已有条目只叠加分数，推荐理由保持先到先得
	for _, rec := range s.collaborativeFiltering(ctx, userID, model.CFBlendLimit) {
		if _, skip := excluded[rec.ProductID]; skip {
			continue
		}
		if existing, ok := blended[rec.ProductID]; ok {
			existing.Score += rec.Score
		} else {
			blended[rec.ProductID] = cloneRec(rec)
		}
	}

	// 信号三：偏好类目内的热门商品
	categoryRecs, err := s.categoryRecommendations(ctx, userID, excluded)
	if err != nil {
		return nil, err
	}
	for _, rec := range categoryRecs {
		if existing, ok := blended[rec.ProductID]; ok {
			existing.Score += rec.Score * model.CategoryBlendFactor
		} else {
			blended[rec.ProductID] = rec
		}
	}

	recs := make([]*model.RecommendedProduct, 0, len(blended))
	for _, rec := range blended {
		recs = append(recs, rec)
	}
	sortByScore(recs)
	return truncate(recs, limit), nil
}

// collaborativeFiltering 基于共现关系的协同过滤
//
// 交互太少时不产出（冷启动保护），内部失败降级为空结果。
func (s *Service) collaborativeFiltering(ctx context.Context, userID string, limit int64) []*model.RecommendedProduct {
	empty := []*model.RecommendedProduct{}

	interactions, err := s.signals.GetUserInteractions(ctx, userID, model.InternalReadLimit)
	if err != nil {
		s.logger.Error(ctx, "协同过滤读取交互失败",
			logger.F("user_id", userID), logger.F("error", err.Error()))
		return empty
	}
	if len(interactions) < s.cfg.MinInteractionsForCF {
		return empty
	}

	// 用户交互过的商品不再推荐
	seen := make(map[string]struct{}, len(interactions))
	for _, inter := range interactions {
		seen[inter.ProductID] = struct{}{}
	}

	// 按时间序取最近去重商品及其交互权重
	type source struct {
		productID string
		weight    float64
	}
	sources := make([]source, 0, model.CFSourceProducts)
	picked := make(map[string]struct{})
	for _, inter := range interactions {
		if len(sources) >= model.CFSourceProducts {
			break
		}
		if _, ok := picked[inter.ProductID]; ok {
			continue
		}
		picked[inter.ProductID] = struct{}{}
		sources = append(sources, source{productID: inter.ProductID, weight: inter.Score})
	}

	scores := make(map[string]float64)
	for _, src := range sources {
		neighbors, err := s.signals.GetCoOccurrents(ctx, src.productID, model.CFNeighborsPerProduct)
		if err != nil {
			s.logger.Error(ctx, "协同过滤读取共现失败",
				logger.F("product_id", src.productID), logger.F("error", err.Error()))
			return empty
		}
		for _, neighbor := range neighbors {
			if _, ok := seen[neighbor.Member]; ok {
				continue
			}
			scores[neighbor.Member] += neighbor.Score * src.weight
		}
	}

	recs := make([]*model.RecommendedProduct, 0, len(scores))
	for productID, score := range scores {
		recs = append(recs, &model.RecommendedProduct{
			ProductID: productID,
			Score:     score,
			Reason:    model.ReasonCollaborative,
		})
	}
	sortByScore(recs)
	return truncate(recs, limit)
}

// categoryRecommendations 从用户偏好最高的类目中取热门商品
func (s *Service) categoryRecommendations(ctx context.Context, userID string, excluded map[string]struct{}) ([]*model.RecommendedProduct, error) {
	categories, err := s.signals.GetPreferredCategories(ctx, userID, model.TopPreferredCategory)
	if err != nil {
		return nil, err
	}

	recs := make([]*model.RecommendedProduct, 0, len(categories)*model.CategoryPopularLimit)
	for _, category := range categories {
		popular, err := s.signals.GetCategoryPopular(ctx, category.Member, model.CategoryPopularLimit)
		if err != nil {
			return nil, err
		}
		for _, entry := range popular {
			if _, skip := excluded[entry.Member]; skip {
				continue
			}
			recs = append(recs, &model.RecommendedProduct{
				ProductID: entry.Member,
				Score:     entry.Score,
				Reason:    model.ReasonCategoryPopular,
			})
		}
	}
	return recs, nil
}
