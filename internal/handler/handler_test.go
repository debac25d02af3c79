package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/config"
	"github.com/xxxsen/docqa/internal/extract"
	"github.com/xxxsen/docqa/internal/filestore"
	"github.com/xxxsen/docqa/internal/handler"
	"github.com/xxxsen/docqa/internal/middleware"
	"github.com/xxxsen/docqa/internal/pkg/errcode"
	"github.com/xxxsen/docqa/internal/querylog"
	"github.com/xxxsen/docqa/internal/service"
)

type markdownGenerator struct{}

func (markdownGenerator) Generate(ctx context.Context, message string, documents []string) (string, error) {
	return "**" + message + "** <script>alert(1)</script>", nil
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": filepath.Join(dir, "documents")},
	})
	require.NoError(t, err)
	log := querylog.NewFileStore(filepath.Join(dir, "query_log.csv"))
	texts := extract.NewTextCache(store, 16, 0, extract.WithExtractFunc(func(data []byte) (string, error) {
		return string(data), nil
	}))
	embedProvider, err := ai.NewEmbedProvider("local", nil)
	require.NoError(t, err)
	manager := ai.NewManager(markdownGenerator{}, ai.NewEmbedder(embedProvider, ""), ai.ManagerConfig{Timeout: 5, EmbedConcurrency: 2})

	docs := service.NewDocumentService(store, texts)
	qa := service.NewQAService(docs, manager, log)
	const maxUpload = 1024
	deps := handler.RouterDeps{
		Documents: handler.NewDocumentHandler(docs, maxUpload),
		QA:        handler.NewQAHandler(qa),
		Analytics: handler.NewAnalyticsHandler(qa),
		UI:        handler.NewUIHandler(docs, qa, maxUpload),
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return engine
}

func do(t *testing.T, router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func uploadRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func askRequest(query string) *http.Request {
	payload, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SessionHeader, "test-session")
	return req
}

func TestHealthz(t *testing.T) {
	router := setupRouter(t)
	resp := do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil))
	require.Equal(t, 0, decode(t, resp).Code)
	require.NotEmpty(t, resp.Header().Get(middleware.RequestIDHeader))
}

func TestAsk_NoDocumentsWarning(t *testing.T) {
	router := setupRouter(t)
	out := decode(t, do(t, router, askRequest("What is X?")))
	require.Equal(t, errcode.ErrNoDocuments, out.Code)
	require.Contains(t, out.Msg, "upload PDF files first")

	top := decode(t, do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/top", nil)))
	require.JSONEq(t, `{"queries":[]}`, string(top.Data))
}

func TestAsk_EmptyQuery(t *testing.T) {
	router := setupRouter(t)
	out := decode(t, do(t, router, askRequest("   ")))
	require.Equal(t, errcode.ErrInvalid, out.Code)
}

func TestUploadAskAndAnalytics(t *testing.T) {
	router := setupRouter(t)

	out := decode(t, do(t, router, uploadRequest(t, map[string]string{
		"solar.pdf": "Solar panels convert sunlight into electricity.",
		"notes.txt": "not a pdf",
		"big.pdf":   strings.Repeat("x", 2048),
	})))
	require.Equal(t, 0, out.Code)
	var uploaded struct {
		Files []struct {
			Name  string `json:"name"`
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &uploaded))
	require.Len(t, uploaded.Files, 3)
	status := map[string]bool{}
	for _, f := range uploaded.Files {
		status[f.Name] = f.OK
	}
	require.Equal(t, map[string]bool{"solar.pdf": true, "notes.txt": false, "big.pdf": false}, status)

	list := decode(t, do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)))
	var docs struct {
		Documents []struct {
			Name string `json:"name"`
		} `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(list.Data, &docs))
	require.Len(t, docs.Documents, 1)
	require.Equal(t, "solar.pdf", docs.Documents[0].Name)

	out = decode(t, do(t, router, askRequest("What do solar panels do?")))
	require.Equal(t, 0, out.Code, out.Msg)
	var ans struct {
		Answer     string `json:"answer"`
		AnswerHTML string `json:"answer_html"`
		Source     string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &ans))
	require.Equal(t, "solar.pdf", ans.Source)
	require.Contains(t, ans.AnswerHTML, "<strong>What do solar panels do?</strong>")
	require.NotContains(t, ans.AnswerHTML, "<script>")

	top := decode(t, do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/top", nil)))
	require.JSONEq(t, `{"queries":[{"query":"What do solar panels do?","count":1}]}`, string(top.Data))

	charts := do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/charts", nil))
	require.Contains(t, charts.Header().Get("Content-Type"), "text/html")
	require.Contains(t, charts.Body.String(), "What do solar panels do?")
}

func TestUpload_NoFiles(t *testing.T) {
	router := setupRouter(t)
	out := decode(t, do(t, router, uploadRequest(t, map[string]string{})))
	require.Equal(t, errcode.ErrInvalidFile, out.Code)
}

func TestUIPage(t *testing.T) {
	router := setupRouter(t)
	resp := do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/ui", nil))
	body := resp.Body.String()
	require.Contains(t, body, "Question Answering Application")
	require.Contains(t, body, "No documents found. Please upload PDF files first.")
	require.Contains(t, resp.Header().Get("Set-Cookie"), middleware.SessionCookie)
}
