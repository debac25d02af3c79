package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/extract"
	"github.com/xxxsen/docqa/internal/middleware"
	"github.com/xxxsen/docqa/internal/pkg/errcode"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/response"
)

const noDocumentsMessage = "No documents found. Please upload PDF files first."

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrNoDocuments):
		response.Error(c, errcode.ErrNoDocuments, noDocumentsMessage)
	case errors.Is(err, appErr.ErrEmptyQuery):
		response.Error(c, errcode.ErrInvalid, "please enter a question")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrBusy):
		response.Error(c, errcode.ErrBusy, "a question is already being answered")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, errcode.ErrTooMany, http.StatusText(http.StatusTooManyRequests))
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, extract.ErrExtract):
		response.Error(c, errcode.ErrExtractFailed, err.Error())
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, err.Error())
	case errors.Is(err, appErr.ErrGenerate):
		response.Error(c, errcode.ErrGenerateFailed, err.Error())
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

func Healthz(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
