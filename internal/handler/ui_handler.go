package handler

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type UIHandler struct {
	docs      *service.DocumentService
	qa        *service.QAService
	maxUpload int64
}

func NewUIHandler(docs *service.DocumentService, qa *service.QAService, maxUpload int64) *UIHandler {
	return &UIHandler{docs: docs, qa: qa, maxUpload: maxUpload}
}

type indexPage struct {
	Documents   []model.Document
	TopQueries  []model.TopQuery
	UploadLimit string
	Warning     string
}

func (h *UIHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	page := indexPage{UploadLimit: formatUploadLimit(h.maxUpload)}
	docs, err := h.docs.List(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Error("list documents for ui failed", zap.Error(err))
		page.Warning = "failed to list documents"
	}
	page.Documents = docs
	top, err := h.qa.TopQueries(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Error("load top queries for ui failed", zap.Error(err))
	}
	page.TopQueries = top
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, page); err != nil {
		handleError(c, err)
		return
	}
	response.HTML(c, buf.Bytes())
}
