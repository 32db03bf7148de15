package dao

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecommerce-reco/apps/review-service/model"
	"ecommerce-reco/pkg/database"
)

const (
	collectionReviews   = "reviews"
	collectionSummaries = "rating_summaries"
)

// ReviewDAO 评价数据访问接口
type ReviewDAO interface {
	CreateReview(ctx context.Context, review *model.Review) error
	GetReviewByID(ctx context.Context, reviewID string) (*model.Review, error)
	ListReviews(ctx context.Context, query *model.ReviewQuery) ([]*model.Review, int64, error)
	UpdateStatus(ctx context.Context, reviewID, status string) error
	IncrHelpfulness(ctx context.Context, reviewID string, helpful bool) error
	AddSellerResponse(ctx context.Context, reviewID, content string) error
	RecomputeSummary(ctx context.Context, productID string) (*model.RatingSummary, error)
	GetSummary(ctx context.Context, productID string) (*model.RatingSummary, error)
}

// mongoReviewDAO ReviewDAO的MongoDB实现
type mongoReviewDAO struct {
	db *database.MongoDB
}

// NewReviewDAO 创建评价DAO
func NewReviewDAO(db *database.MongoDB) ReviewDAO {
	return &mongoReviewDAO{db: db}
}

func (d *mongoReviewDAO) reviews() *mongo.Collection {
	return d.db.GetCollection(collectionReviews)
}

func (d *mongoReviewDAO) summaries() *mongo.Collection {
	return d.db.GetCollection(collectionSummaries)
}

// CreateReview 写入一条评价
func (d *mongoReviewDAO) CreateReview(ctx context.Context, review *model.Review) error {
	if review.ID == "" {
		review.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now

	if _, err := d.reviews().InsertOne(ctx, review); err != nil {
		return fmt.Errorf("写入评价失败: %v", err)
	}
	return nil
}

// GetReviewByID 按ID查询评价，不存在时返回nil
func (d *mongoReviewDAO) GetReviewByID(ctx context.Context, reviewID string) (*model.Review, error) {
	var review model.Review
	err := d.reviews().FindOne(ctx, bson.M{"_id": reviewID}).Decode(&review)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("查询评价失败: %v", err)
	}
	return &review, nil
}

// ListReviews 分页查询评价，按创建时间倒序
func (d *mongoReviewDAO) ListReviews(ctx context.Context, query *model.ReviewQuery) ([]*model.Review, int64, error) {
	filter := bson.M{}
	if query.ProductID != "" {
		filter["product_id"] = query.ProductID
		// 商品维度只展示审核通过的评价
		filter["status"] = model.StatusApproved
	}
	if query.UserID != "" {
		filter["user_id"] = query.UserID
	}
	if query.Rating >= model.MinRating && query.Rating <= model.MaxRating {
		filter["rating"] = query.Rating
	}
	if query.VerifiedOnly {
		filter["verified_purchase"] = true
	}

	total, err := d.reviews().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("统计评价数量失败: %v", err)
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 || pageSize > model.MaxPageSize {
		pageSize = model.DefaultPageSize
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip((page - 1) * pageSize).
		SetLimit(pageSize)

	cursor, err := d.reviews().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("查询评价列表失败: %v", err)
	}
	defer cursor.Close(ctx)

	var reviews []*model.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, fmt.Errorf("解析评价列表失败: %v", err)
	}
	return reviews, total, nil
}

// UpdateStatus 更新评价审核状态
func (d *mongoReviewDAO) UpdateStatus(ctx context.Context, reviewID, status string) error {
	result, err := d.reviews().UpdateOne(ctx,
		bson.M{"_id": reviewID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}})
	if err != nil {
		return fmt.Errorf("更新评价状态失败: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("评价不存在: %s", reviewID)
	}
	return nil
}

// IncrHelpfulness 记录评价有用或无用投票
func (d *mongoReviewDAO) IncrHelpfulness(ctx context.Context, reviewID string, helpful bool) error {
	field := "helpful_count"
	if !helpful {
		field = "not_helpful_count"
	}

	result, err := d.reviews().UpdateOne(ctx,
		bson.M{"_id": reviewID},
		bson.M{"$inc": bson.M{field: 1}, "$set": bson.M{"updated_at": time.Now()}})
	if err != nil {
		return fmt.Errorf("记录评价投票失败: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("评价不存在: %s", reviewID)
	}
	return nil
}

// AddSellerResponse 添加商家回复
func (d *mongoReviewDAO) AddSellerResponse(ctx context.Context, reviewID, content string) error {
	response := &model.SellerResponse{
		Content:   content,
		CreatedAt: time.Now(),
	}

	result, err := d.reviews().UpdateOne(ctx,
		bson.M{"_id": reviewID},
		bson.M{"$set": bson.M{"seller_response": response, "updated_at": time.Now()}})
	if err != nil {
		return fmt.Errorf("添加商家回复失败: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("评价不存在: %s", reviewID)
	}
	return nil
}

// RecomputeSummary 重算商品评分汇总并落库
func (d *mongoReviewDAO) RecomputeSummary(ctx context.Context, productID string) (*model.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID, "status": model.StatusApproved}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$rating",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := d.reviews().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("聚合评分分布失败: %v", err)
	}
	defer cursor.Close(ctx)

	var buckets []struct {
		Rating int   `bson:"_id"`
		Count  int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("解析评分分布失败: %v", err)
	}

	summary := &model.RatingSummary{
		ProductID:    productID,
		Distribution: make(map[string]int64, model.MaxRating),
		UpdatedAt:    time.Now(),
	}
	var weighted int64
	for _, bucket := range buckets {
		summary.Distribution[fmt.Sprintf("%d", bucket.Rating)] = bucket.Count
		summary.TotalReviews += bucket.Count
		weighted += int64(bucket.Rating) * bucket.Count
	}
	if summary.TotalReviews > 0 {
		summary.AverageRating = float64(weighted) / float64(summary.TotalReviews)
	}

	_, err = d.summaries().ReplaceOne(ctx,
		bson.M{"_id": productID}, summary, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("写入评分汇总失败: %v", err)
	}
	return summary, nil
}

// GetSummary 读取商品评分汇总，不存在时返回空汇总
func (d *mongoReviewDAO) GetSummary(ctx context.Context, productID string) (*model.RatingSummary, error) {
	var summary model.RatingSummary
	err := d.summaries().FindOne(ctx, bson.M{"_id": productID}).Decode(&summary)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &model.RatingSummary{
				ProductID:    productID,
				Distribution: map[string]int64{},
			}, nil
		}
		return nil, fmt.Errorf("查询评分汇总失败: %v", err)
	}
	return &summary, nil
}
