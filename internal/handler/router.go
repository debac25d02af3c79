package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/middleware"
)

type RouterDeps struct {
	Documents    *DocumentHandler
	QA           *QAHandler
	Analytics    *AnalyticsHandler
	UI           *UIHandler
	AskRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", Healthz)

	group := api.Group("")
	group.Use(middleware.Session())
	group.GET("/ui", deps.UI.Index)
	group.POST("/documents", deps.Documents.Upload)
	group.GET("/documents", deps.Documents.List)
	group.POST("/ask", middleware.RateLimit(deps.AskRateLimit), deps.QA.Ask)
	group.GET("/analytics/top", deps.Analytics.Top)
	group.GET("/analytics/charts", deps.Analytics.Charts)
}
