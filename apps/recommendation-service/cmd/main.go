package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"ecommerce-reco/apps/recommendation-service/consumer"
	"ecommerce-reco/apps/recommendation-service/dao"
	"ecommerce-reco/apps/recommendation-service/handler"
	"ecommerce-reco/apps/recommendation-service/model"
	"ecommerce-reco/apps/recommendation-service/service"
	"ecommerce-reco/pkg/lifecycle"
	"ecommerce-reco/pkg/server"
)

func main() {
	app := server.NewApplication("recommendation-service", server.Options{
		EnablePostgreSQL: true,
	})

	// 归档表结构迁移
	if err := app.GetPostgreSQL().AutoMigrate(&model.InteractionRecord{}); err != nil {
		log.Fatalf("交互归档表迁移失败: %v", err)
	}

	// 初始化DAO与服务
	signalDAO := dao.NewSignalDAO(app.GetRedisClient())
	cacheDAO := dao.NewCacheDAO(app.GetRedisClient())
	archiveDAO := dao.NewArchiveDAO(app.GetPostgreSQL())
	svc := service.NewService(signalDAO, cacheDAO, archiveDAO, app.GetConfig().Recommend, app.GetLogger())

	// HTTP服务
	app.EnableHTTP()
	httpHandler := handler.NewHTTPHandler(svc, app.GetLogger())
	app.RegisterHTTPRoutes(func(engine *gin.Engine) {
		httpHandler.RegisterRoutes(engine)
	})

	// 事件消费者
	eventConsumer := consumer.NewEventConsumer(svc)
	cfg := app.GetConfig()
	app.AddLifecycleHook(lifecycle.Hook{
		Name:     "event-consumer",
		Priority: 200,
		OnStart: func(ctx context.Context) error {
			return eventConsumer.Start(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		},
		OnStop: func(ctx context.Context) error {
			return eventConsumer.Stop()
		},
	})

	if err := app.Run(); err != nil {
		log.Fatalf("服务运行失败: %v", err)
	}
}
