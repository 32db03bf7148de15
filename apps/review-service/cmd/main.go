package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"ecommerce-reco/apps/review-service/dao"
	"ecommerce-reco/apps/review-service/handler"
	"ecommerce-reco/apps/review-service/service"
	"ecommerce-reco/pkg/server"
)

func main() {
	app := server.NewApplication("review-service", server.Options{
		EnableMongoDB: true,
	})

	reviewDAO := dao.NewReviewDAO(app.GetMongoDB())
	svc := service.NewService(reviewDAO, app.GetKafkaProducer(), app.GetLogger())

	app.EnableHTTP()
	httpHandler := handler.NewHTTPHandler(svc, app.GetLogger())
	app.RegisterHTTPRoutes(func(engine *gin.Engine) {
		httpHandler.RegisterRoutes(engine)
	})

	if err := app.Run(); err != nil {
		log.Fatalf("服务运行失败: %v", err)
	}
}
