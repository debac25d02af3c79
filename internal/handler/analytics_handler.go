package handler

import (
	"bytes"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/service"
)

type AnalyticsHandler struct {
	qa *service.QAService
}

func NewAnalyticsHandler(qa *service.QAService) *AnalyticsHandler {
	return &AnalyticsHandler{qa: qa}
}

func (h *AnalyticsHandler) Top(c *gin.Context) {
	top, err := h.qa.TopQueries(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"queries": top})
}

func (h *AnalyticsHandler) Charts(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.qa.RenderCharts(c.Request.Context(), &buf); err != nil {
		handleError(c, err)
		return
	}
	response.HTML(c, buf.Bytes())
}
