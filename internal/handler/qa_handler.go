package handler

import (
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/middleware"
	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/service"
)

type QAHandler struct {
	qa *service.QAService
}

func NewQAHandler(qa *service.QAService) *QAHandler {
	return &QAHandler{qa: qa}
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	model.Answer
	AnswerHTML template.HTML `json:"answer_html"`
}

func (h *QAHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, appErr.ErrInvalid)
		return
	}
	ans, err := h.qa.Ask(c.Request.Context(), middleware.SessionID(c), req.Query)
	if err != nil {
		handleError(c, err)
		return
	}
	out := askResponse{Answer: *ans}
	html, err := renderMarkdown(ans.Answer)
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Warn("render answer markdown failed", zap.Error(err))
		html = template.HTML(template.HTMLEscapeString(ans.Answer))
	}
	out.AnswerHTML = html
	response.Success(c, out)
}
