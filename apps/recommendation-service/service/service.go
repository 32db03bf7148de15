package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ecommerce-reco/apps/recommendation-service/dao"
	"ecommerce-reco/apps/recommendation-service/model"
	"ecommerce-reco/pkg/config"
	"ecommerce-reco/pkg/logger"
)

// Service 推荐服务
type Service struct {
	signals dao.SignalDAO
	cache   dao.CacheDAO
	archive dao.ArchiveDAO // 可为nil，归档为尽力而为
	cfg     config.RecommendConfig
	logger  logger.Logger
}

// NewService 创建推荐服务实例
func NewService(signals dao.SignalDAO, cache dao.CacheDAO, archive dao.ArchiveDAO, cfg config.RecommendConfig, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	if cfg.InteractionWeights == nil {
		cfg.InteractionWeights = config.DefaultInteractionWeights()
	}
	return &Service{
		signals: signals,
		cache:   cache,
		archive: archive,
		cfg:     cfg,
		logger:  log,
	}
}

// TrackInteraction 记录一次用户交互并更新各信号
//
// 日志、热度、共现、画像四个步骤相互独立，单步失败不阻断其余步骤，
// 执行情况通过TrackOutcome返回。仅参数非法时返回错误。
func (s *Service) TrackInteraction(ctx context.Context, userID, productID, interactionType string, metadata map[string]string) (*model.TrackOutcome, error) {
	if userID == "" {
		return nil, fmt.Errorf("用户ID不能为空")
	}
	if productID == "" {
		return nil, fmt.Errorf("商品ID不能为空")
	}
	if err := model.ValidateInteractionType(interactionType); err != nil {
		return nil, err
	}

	weight := s.weightFor(interactionType)
	entry := &model.Interaction{
		ProductID: productID,
		Type:      interactionType,
		Score:     weight,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Metadata:  metadata,
	}

	outcome := &model.TrackOutcome{}

	if err := s.signals.AppendInteraction(ctx, userID, entry); err != nil {
		s.logger.Error(ctx, "追加交互日志失败",
			logger.F("user_id", userID), logger.F("error", err.Error()))
	} else {
		outcome.LogAppended = true
	}

	if err := s.signals.IncrPopularity(ctx, productID, weight); err != nil {
		s.logger.Error(ctx, "更新商品热度失败",
			logger.F("product_id", productID), logger.F("error", err.Error()))
	} else {
		outcome.PopularityUpdated = true
	}

	if err := s.updateCoOccurrence(ctx, userID, productID); err != nil {
		s.logger.Error(ctx, "更新商品共现失败",
			logger.F("product_id", productID), logger.F("error", err.Error()))
	} else {
		outcome.CoOccurrenceUpdated = true
	}

	if err := s.updateProfile(ctx, userID, productID, interactionType, weight); err != nil {
		s.logger.Error(ctx, "更新用户画像失败",
			logger.F("user_id", userID), logger.F("error", err.Error()))
	} else {
		outcome.ProfileUpdated = true
	}

	s.archiveAsync(userID, productID, interactionType, weight)

	return outcome, nil
}

// updateCoOccurrence 把当前商品与该用户近期交互过的其他商品两两关联
func (s *Service) updateCoOccurrence(ctx context.Context, userID, productID string) error {
	recent, err := s.signals.GetUserInteractions(ctx, userID, model.CoOccurrenceWindow)
	if err != nil {
		return err
	}

	for _, inter := range recent {
		if inter.ProductID == productID {
			continue
		}
		if err := s.signals.IncrCoOccurrence(ctx, productID, inter.ProductID); err != nil {
			return err
		}
	}
	return nil
}

// updateProfile 更新画像计数、已购集合与类目偏好
func (s *Service) updateProfile(ctx context.Context, userID, productID, interactionType string, weight float64) error {
	if err := s.signals.TouchProfile(ctx, userID, time.Now()); err != nil {
		return err
	}

	if interactionType == model.InteractionTypePurchase {
		if err := s.signals.AddPurchased(ctx, userID, productID); err != nil {
			return err
		}
	}

	meta, err := s.signals.GetProductMetadata(ctx, productID)
	if err != nil {
		return err
	}
	if meta == nil || meta.CategoryID == "" {
		return nil
	}
	if err := s.signals.IncrCategoryAffinity(ctx, userID, meta.CategoryID, weight); err != nil {
		return err
	}
	return s.signals.IncrCategoryPopularity(ctx, meta.CategoryID, productID, weight)
}

// archiveAsync 异步写交互归档，失败只记日志
func (s *Service) archiveAsync(userID, productID, interactionType string, weight float64) {
	if s.archive == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		record := &model.InteractionRecord{
			UserID:          userID,
			ProductID:       productID,
			InteractionType: interactionType,
			Weight:          weight,
		}
		if err := s.archive.CreateRecord(ctx, record); err != nil {
			s.logger.Error(ctx, "交互归档失败",
				logger.F("user_id", userID), logger.F("error", err.Error()))
		}
	}()
}

// UpsertProductMetadata 更新商品元数据
func (s *Service) UpsertProductMetadata(ctx context.Context, meta *model.ProductMetadata) error {
	if meta == nil || meta.ProductID == "" {
		return fmt.Errorf("商品ID不能为空")
	}
	return s.signals.UpsertProductMetadata(ctx, meta)
}

// GetUserStats 读取用户交互的归档统计
func (s *Service) GetUserStats(ctx context.Context, userID string) (map[string]int64, error) {
	if userID == "" {
		return nil, fmt.Errorf("用户ID不能为空")
	}
	if s.archive == nil {
		return map[string]int64{}, nil
	}
	return s.archive.GetUserStats(ctx, userID)
}

func (s *Service) weightFor(interactionType string) float64 {
	if w, ok := s.cfg.InteractionWeights[interactionType]; ok {
		return w
	}
	return 1.0
}

// sortByScore 按分数降序排序，分数相同时按商品ID升序保证结果稳定
func sortByScore(recs []*model.RecommendedProduct) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].ProductID < recs[j].ProductID
	})
}

func truncate(recs []*model.RecommendedProduct, limit int64) []*model.RecommendedProduct {
	if limit > 0 && int64(len(recs)) > limit {
		return recs[:limit]
	}
	return recs
}

// cloneRec 复制推荐项，避免混排叠加分数时污染缓存中的共享数据
func cloneRec(rec *model.RecommendedProduct) *model.RecommendedProduct {
	clone := *rec
	return &clone
}
