// Package web отдаёт HTML форму проверки URL и живую ленту вердиктов.
package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/BetterCallFirewall/PhishGuard/internal/classifier"
	"github.com/BetterCallFirewall/PhishGuard/internal/config"
	"github.com/BetterCallFirewall/PhishGuard/internal/storage"
	"github.com/BetterCallFirewall/PhishGuard/internal/websocket"
)

const (
	resultPhishing = "⚠️ PHISHING"
	resultSafe     = "✅ SAFE"

	// maxFormMemory - лимит памяти для multipart формы, остальное уходит во временные файлы
	maxFormMemory = 1 << 20
)

// Server - HTTP сервер инференса
type Server struct {
	cfg        config.ServerConfig
	service    *classifier.Service
	store      *storage.MemoryStorage
	hub        *websocket.Hub
	httpServer *http.Server
}

// NewServer wires the handlers. store and hub may be nil.
func NewServer(cfg config.ServerConfig, service *classifier.Service, store *storage.MemoryStorage, hub *websocket.Hub) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		store:   store,
		hub:     hub,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.hub.ServeWS)
	}
	return withLogging(mux)
}

// Start blocks serving HTTP until Stop is called.
func (s *Server) Start() error {
	log.Printf("🚀 Listening on %s", s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.render(w, pageData{})
	case http.MethodPost:
		// форма принимается и как urlencoded, и как multipart
		if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		urls, ok := r.PostForm["url"]
		if !ok || len(urls) == 0 {
			http.Error(w, "url field required", http.StatusBadRequest)
			return
		}

		v := s.service.Classify(urls[0])
		if s.store != nil {
			s.store.StoreVerdict(v)
		}
		if s.hub != nil {
			s.hub.Broadcast("verdict", v)
		}
		log.WithFields(log.Fields{"url": v.URL, "label": v.Label.String()}).Debug("URL classified")

		data := pageData{Result: resultSafe, URL: v.URL}
		if v.IsPhishing() {
			data.Result = resultPhishing
			data.Phish = true
		}
		s.render(w, data)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	if s.store != nil {
		for _, v := range s.store.Recent() {
			data.Recent = append(data.Recent, recentItem{
				URL:       v.URL,
				Phish:     v.IsPhishing(),
				CheckedAt: v.CheckedAt.Format(time.RFC3339),
			})
		}
	}
	if a := s.service.Artifact(); a != nil {
		data.Trained = a.TrainedAt.Format("2006-01-02 15:04 MST")
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		log.Errorf("Failed to render page: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
