package consumer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/IBM/sarama"

	"ecommerce-reco/apps/recommendation-service/model"
	"ecommerce-reco/apps/recommendation-service/service"
	"ecommerce-reco/pkg/kafka"
)

// 订阅的事件主题
const (
	TopicOrderEvents   = "order-events"
	TopicProductEvents = "product-events"
	TopicUserEvents    = "user-events"
	TopicReviewEvents  = "review-events"
)

// 事件类型
const (
	EventOrderCreated       = "OrderCreated"
	EventProductCreated     = "ProductCreated"
	EventProductUpdated     = "ProductUpdated"
	EventProductViewed      = "ProductViewed"
	EventProductAddedToCart = "ProductAddedToCart"
	EventProductWishlisted  = "ProductAddedToWishlist"
	EventReviewCreated      = "ReviewCreated"
)

// EventConsumer 消费业务事件流并转化为推荐信号
type EventConsumer struct {
	svc      *service.Service
	consumer *kafka.Consumer
}

// NewEventConsumer 创建事件消费者
func NewEventConsumer(svc *service.Service) *EventConsumer {
	return &EventConsumer{svc: svc}
}

// Start 启动事件消费
func (ec *EventConsumer) Start(ctx context.Context, brokers []string, groupID string) error {
	consumer, err := kafka.InitConsumer(kafka.KafkaConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topics:  []string{TopicOrderEvents, TopicProductEvents, TopicUserEvents, TopicReviewEvents},
	}, ec)
	if err != nil {
		return err
	}

	ec.consumer = consumer
	if err := consumer.StartConsuming(ctx); err != nil {
		return err
	}

	log.Printf("事件消费者已启动, groupID: %s", groupID)
	return nil
}

// Stop 停止事件消费
func (ec *EventConsumer) Stop() error {
	if ec.consumer == nil {
		return nil
	}
	return ec.consumer.Close()
}

// HandleMessage 处理单条事件
// 无法解析或处理失败的事件记录日志后丢弃，不阻塞消费进度
func (ec *EventConsumer) HandleMessage(msg *sarama.ConsumerMessage) error {
	var event map[string]interface{}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("解析事件失败, topic: %s, error: %v", msg.Topic, err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch msg.Topic {
	case TopicOrderEvents:
		ec.handleOrderEvent(ctx, event)
	case TopicProductEvents:
		ec.handleProductEvent(ctx, event)
	case TopicUserEvents:
		ec.handleUserEvent(ctx, event)
	case TopicReviewEvents:
		ec.handleReviewEvent(ctx, event)
	default:
		log.Printf("未知事件主题: %s", msg.Topic)
	}
	return nil
}

// handleOrderEvent 订单事件：订单内每个商品记一次购买交互
func (ec *EventConsumer) handleOrderEvent(ctx context.Context, event map[string]interface{}) {
	if eventType(event) != EventOrderCreated {
		return
	}

	data := eventData(event)
	userID := getString(data, "user_id", "userId")
	if userID == "" {
		return
	}

	items, _ := data["items"].([]interface{})
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		productID := getString(item, "product_id", "productId")
		if productID == "" {
			continue
		}
		if _, err := ec.svc.TrackInteraction(ctx, userID, productID, model.InteractionTypePurchase, nil); err != nil {
			log.Printf("记录购买交互失败, userID: %s, productID: %s, error: %v", userID, productID, err)
		}
	}
}

// handleProductEvent 商品事件：维护商品元数据与类目索引
func (ec *EventConsumer) handleProductEvent(ctx context.Context, event map[string]interface{}) {
	et := eventType(event)
	if et != EventProductCreated && et != EventProductUpdated {
		return
	}

	data := eventData(event)
	productID := getString(data, "id", "product_id", "productId")
	if productID == "" {
		return
	}

	meta := &model.ProductMetadata{
		ProductID:  productID,
		Name:       getString(data, "name"),
		CategoryID: getString(data, "category_id", "categoryId"),
		BrandID:    getString(data, "brand_id", "brandId"),
		Price:      getFloat(data, "price"),
		ImageURL:   getString(data, "image_url", "imageUrl"),
	}
	if err := ec.svc.UpsertProductMetadata(ctx, meta); err != nil {
		log.Printf("更新商品元数据失败, productID: %s, error: %v", productID, err)
	}
}

// handleUserEvent 用户行为事件：浏览、加购、加心愿单
func (ec *EventConsumer) handleUserEvent(ctx context.Context, event map[string]interface{}) {
	var interactionType string
	switch eventType(event) {
	case EventProductViewed:
		interactionType = model.InteractionTypeView
	case EventProductAddedToCart:
		interactionType = model.InteractionTypeAddToCart
	case EventProductWishlisted:
		interactionType = model.InteractionTypeWishlist
	default:
		return
	}

	data := eventData(event)
	userID := getString(data, "user_id", "userId")
	productID := getString(data, "product_id", "productId")
	if userID == "" || productID == "" {
		return
	}

	if _, err := ec.svc.TrackInteraction(ctx, userID, productID, interactionType, nil); err != nil {
		log.Printf("记录用户交互失败, userID: %s, productID: %s, error: %v", userID, productID, err)
	}
}

// handleReviewEvent 评价事件：记一次评价交互
func (ec *EventConsumer) handleReviewEvent(ctx context.Context, event map[string]interface{}) {
	if eventType(event) != EventReviewCreated {
		return
	}

	data := eventData(event)
	userID := getString(data, "user_id", "userId")
	productID := getString(data, "product_id", "productId")
	if userID == "" || productID == "" {
		return
	}

	if _, err := ec.svc.TrackInteraction(ctx, userID, productID, model.InteractionTypeReview, nil); err != nil {
		log.Printf("记录评价交互失败, userID: %s, productID: %s, error: %v", userID, productID, err)
	}
}

func eventType(event map[string]interface{}) string {
	return getString(event, "event_type", "eventType", "type")
}

// eventData 取事件负载，兼容有无data包装两种格式
func eventData(event map[string]interface{}) map[string]interface{} {
	if data, ok := event["data"].(map[string]interface{}); ok {
		return data
	}
	return event
}

func getString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func getFloat(m map[string]interface{}, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := m[key].(float64); ok {
			return v
		}
	}
	return 0
}
