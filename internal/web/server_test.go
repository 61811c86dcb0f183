package web

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BetterCallFirewall/PhishGuard/internal/classifier"
	"github.com/BetterCallFirewall/PhishGuard/internal/config"
	"github.com/BetterCallFirewall/PhishGuard/internal/storage"
	"github.com/BetterCallFirewall/PhishGuard/internal/websocket"
)

// ipPredictor помечает как фишинг все URL с IP вместо домена
type ipPredictor struct{}

func (ipPredictor) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		if row[8] == 1 { // has_ip_host
			out[i] = 1
		}
	}
	return out
}

func newTestServer(t *testing.T) (*Server, *websocket.Hub) {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.ServerConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}
	return NewServer(cfg, classifier.NewService(ipPredictor{}), storage.NewMemoryStorage(10), hub), hub
}

func postURL(t *testing.T, h http.Handler, value string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"url": {value}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func parse(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestIndex_Get(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	doc := parse(t, rec)
	assert.Equal(t, "PhishGuard", doc.Find("title").Text())
	assert.Equal(t, "post", doc.Find("form").AttrOr("method", ""))
	assert.Equal(t, 1, doc.Find(`input[name="url"]`).Length())
	assert.Equal(t, 0, doc.Find("#result").Length(), "no result before a submission")
}

func TestIndex_PostPhishing(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postURL(t, srv.Handler(), "http://198.51.100.42/login")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parse(t, rec)
	result := doc.Find("#result")
	assert.Equal(t, "Result: ⚠️ PHISHING", strings.TrimSpace(result.Text()))
	assert.True(t, result.HasClass("result-phish"))
	assert.Equal(t, "http://198.51.100.42/login", doc.Find(`input[name="url"]`).AttrOr("value", ""))
}

func TestIndex_PostSafe(t *testing.T) {
	srv, _ := newTestServer(t)

	doc := parse(t, postURL(t, srv.Handler(), "https://google.com"))
	result := doc.Find("#result")
	assert.Equal(t, "Result: ✅ SAFE", strings.TrimSpace(result.Text()))
	assert.True(t, result.HasClass("result-safe"))
}

func TestIndex_PostEmptyURL(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postURL(t, srv.Handler(), "")
	assert.Equal(t, http.StatusOK, rec.Code, "an empty url is still classified")
	assert.Contains(t, parse(t, rec).Find("#result").Text(), "SAFE")
}

func TestIndex_PostMultipart(t *testing.T) {
	srv, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("url", "http://198.51.100.42/login"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "multipart forms are accepted like urlencoded ones")
	assert.Equal(t, "Result: ⚠️ PHISHING", strings.TrimSpace(parse(t, rec).Find("#result").Text()))
}

func TestIndex_PostMultipartMissingField(t *testing.T) {
	srv, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("link", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndex_PostMissingField(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("link=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndex_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))
	}
}

func TestIndex_UnknownPath(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndex_RecentChecks(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	postURL(t, h, "https://google.com")
	doc := parse(t, postURL(t, h, "http://10.0.0.1/x"))

	items := doc.Find("#recent li")
	require.Equal(t, 2, items.Length())
	assert.Contains(t, items.Eq(0).Text(), "http://10.0.0.1/x", "newest first")
	assert.Contains(t, items.Eq(0).Text(), "PHISHING")
	assert.Contains(t, items.Eq(1).Text(), "https://google.com")
}

// по умолчанию история и лента выключены
func newDefaultServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.ServerConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}
	return NewServer(cfg, classifier.NewService(ipPredictor{}), nil, nil)
}

func TestIndex_DefaultDoesNotShowOtherRequests(t *testing.T) {
	h := newDefaultServer(t).Handler()

	postURL(t, h, "https://bank.example/reset?token=secret123")
	rec := postURL(t, h, "https://google.com")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "secret123", "one visitor's URL must not leak to another")
	assert.NotContains(t, body, "bank.example")
	assert.Contains(t, body, "https://google.com")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotContains(t, rec.Body.String(), "bank.example")
	assert.Equal(t, 0, parse(t, rec).Find("#recent").Length())
}

func TestWebSocket_DisabledByDefault(t *testing.T) {
	h := newDefaultServer(t).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "live feed is not mounted unless enabled")
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestWebSocket_VerdictFeed(t *testing.T) {
	srv, hub := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.PostForm(ts.URL+"/", url.Values{"url": {"http://198.51.100.42/login"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string            `json:"type"`
		Data classifierVerdict `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "verdict", msg.Type)
	assert.Equal(t, "http://198.51.100.42/login", msg.Data.URL)
	assert.Equal(t, "phishing", msg.Data.Label)
	assert.NotEmpty(t, msg.Data.ID)
}

// classifierVerdict - вердикт в том виде, как его видит клиент ленты
type classifierVerdict struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Label string `json:"label"`
}

func TestServer_StartStop(t *testing.T) {
	srv, _ := newTestServer(t)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err, "Start should return nil after graceful shutdown")
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
