package handler

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/pkg/errcode"
	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/service"
)

const uploadField = "files"

type DocumentHandler struct {
	docs     *service.DocumentService
	maxBytes int64
}

func NewDocumentHandler(docs *service.DocumentService, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{docs: docs, maxBytes: maxBytes}
}

type documentItem struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	Mtime int64  `json:"mtime"`
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "multipart form is required")
		return
	}
	headers := form.File[uploadField]
	if len(headers) == 0 {
		response.Error(c, errcode.ErrInvalidFile, "no files uploaded")
		return
	}
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if h.maxBytes > 0 && fh.Size > h.maxBytes {
			files = append(files, service.UploadFile{
				Name: fh.Filename,
				Size: fh.Size,
				Open: tooLarge(h.maxBytes),
			})
			continue
		}
		files = append(files, service.UploadFile{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	results := h.docs.Upload(c.Request.Context(), files)
	response.Success(c, gin.H{"files": results})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.docs.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	items := make([]documentItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, documentItem{Name: doc.Name, Size: doc.Size, Mtime: doc.Mtime})
	}
	response.Success(c, gin.H{"documents": items})
}

type uploadTooLargeError struct {
	limit int64
}

func (e uploadTooLargeError) Error() string {
	return "file exceeds upload limit of " + formatUploadLimit(e.limit)
}

func tooLarge(limit int64) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return nil, uploadTooLargeError{limit: limit}
	}
}

func formatUploadLimit(bytes int64) string {
	const mb = 1024 * 1024
	value := bytes / mb
	if value <= 0 {
		value = 1
	}
	return strconv.FormatInt(value, 10) + "MB"
}
