package service

import (
	"context"
	"encoding/json"
	"fmt"

	"ecommerce-reco/apps/review-service/dao"
	"ecommerce-reco/apps/review-service/model"
	"ecommerce-reco/pkg/logger"
)

// EventPublisher 事件发布接口
type EventPublisher interface {
	SendMessage(topic string, key, value []byte) error
}

// Service 评价服务
type Service struct {
	dao       dao.ReviewDAO
	publisher EventPublisher
	logger    logger.Logger
}

// NewService 创建评价服务实例
func NewService(reviewDAO dao.ReviewDAO, publisher EventPublisher, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{
		dao:       reviewDAO,
		publisher: publisher,
		logger:    log,
	}
}

// CreateReview 创建评价并发布评价事件
func (s *Service) CreateReview(ctx context.Context, review *model.Review) (*model.Review, error) {
	if review == nil {
		return nil, fmt.Errorf("评价内容不能为空")
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}

	review.Status = model.StatusPending
	review.HelpfulCount = 0
	review.NotHelpfulCount = 0
	if err := s.dao.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	s.publishReviewCreated(review)
	return review, nil
}

// publishReviewCreated 发布评价创建事件，失败只记日志不影响主流程
func (s *Service) publishReviewCreated(review *model.Review) {
	if s.publisher == nil {
		return
	}

	event := &model.ReviewCreatedEvent{
		EventType: model.EventReviewCreated,
		Data: model.ReviewCreatedDat{
			ReviewID:  review.ID,
			ProductID: review.ProductID,
			UserID:    review.UserID,
			Rating:    review.Rating,
		},
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error(context.Background(), "序列化评价事件失败",
			logger.F("review_id", review.ID), logger.F("error", err.Error()))
		return
	}
	if err := s.publisher.SendMessage(model.TopicReviewEvents, []byte(review.ProductID), data); err != nil {
		s.logger.Error(context.Background(), "发布评价事件失败",
			logger.F("review_id", review.ID), logger.F("error", err.Error()))
	}
}

// GetReview 按ID查询评价
func (s *Service) GetReview(ctx context.Context, reviewID string) (*model.Review, error) {
	if reviewID == "" {
		return nil, fmt.Errorf("评价ID不能为空")
	}
	review, err := s.dao.GetReviewByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, fmt.Errorf("评价不存在: %s", reviewID)
	}
	return review, nil
}

// ListProductReviews 查询商品的评价列表
func (s *Service) ListProductReviews(ctx context.Context, query *model.ReviewQuery) ([]*model.Review, int64, error) {
	if query == nil || query.ProductID == "" {
		return nil, 0, fmt.Errorf("商品ID不能为空")
	}
	return s.dao.ListReviews(ctx, query)
}

// ListUserReviews 查询用户发表的评价列表
func (s *Service) ListUserReviews(ctx context.Context, userID string, page, pageSize int64) ([]*model.Review, int64, error) {
	if userID == "" {
		return nil, 0, fmt.Errorf("用户ID不能为空")
	}
	return s.dao.ListReviews(ctx, &model.ReviewQuery{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
}

// ModerateReview 审核评价并重算评分汇总
func (s *Service) ModerateReview(ctx context.Context, reviewID, status string) error {
	if reviewID == "" {
		return fmt.Errorf("评价ID不能为空")
	}
	if err := model.ValidateStatus(status); err != nil {
		return err
	}

	review, err := s.dao.GetReviewByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return fmt.Errorf("评价不存在: %s", reviewID)
	}

	if err := s.dao.UpdateStatus(ctx, reviewID, status); err != nil {
		return err
	}

	if _, err := s.dao.RecomputeSummary(ctx, review.ProductID); err != nil {
		s.logger.Error(ctx, "重算评分汇总失败",
			logger.F("product_id", review.ProductID), logger.F("error", err.Error()))
	}
	return nil
}

// VoteReview 评价有用或无用投票
func (s *Service) VoteReview(ctx context.Context, reviewID string, helpful bool) error {
	if reviewID == "" {
		return fmt.Errorf("评价ID不能为空")
	}
	return s.dao.IncrHelpfulness(ctx, reviewID, helpful)
}

// RespondToReview 商家回复评价
func (s *Service) RespondToReview(ctx context.Context, reviewID, content string) error {
	if reviewID == "" {
		return fmt.Errorf("评价ID不能为空")
	}
	if content == "" {
		return fmt.Errorf("回复内容不能为空")
	}
	return s.dao.AddSellerResponse(ctx, reviewID, content)
}

// GetRatingSummary 查询商品评分汇总
func (s *Service) GetRatingSummary(ctx context.Context, productID string) (*model.RatingSummary, error) {
	if productID == "" {
		return nil, fmt.Errorf("商品ID不能为空")
	}
	return s.dao.GetSummary(ctx, productID)
}
