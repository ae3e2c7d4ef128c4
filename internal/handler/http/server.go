package http

import (
	"LinkPulse-Backend/internal/config"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// Server HTTP сервер с обработчиками
type Server struct {
	linksHandler  *LinksHandler
	trackHandler  *TrackHandler
	healthHandler *HealthHandler
	log           *zap.Logger
}

// NewServer создает новый HTTP сервер
func NewServer(
	storage repository.Storage,
	tracker *service.LinkTracker,
	cfg *config.Tracker,
	log *zap.Logger,
) *Server {
	return &Server{
		linksHandler:  NewLinksHandler(tracker, log, cfg.BaseURL, cfg.DefaultExpiresHours),
		trackHandler:  NewTrackHandler(tracker, log, cfg.RedirectURL),
		healthHandler: NewHealthHandler(storage, log),
		log:           log,
	}
}

// SetupRoutes настраивает маршруты
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health checks
	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)

	// API endpoints
	mux.HandleFunc("/api/links", s.withCORS(s.handleLinksAPI))
	mux.HandleFunc("/api/stats/", s.withCORS(s.linksHandler.GetStats))

	// Tracking endpoint — редирект на внешнюю цель с учетом клика
	mux.HandleFunc("/track/", s.trackHandler.HandleTrack)

	return mux
}

// handleLinksAPI обрабатывает /api/links с разными HTTP методами
func (s *Server) handleLinksAPI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.linksHandler.CreateLink(w, r)
	case http.MethodGet:
		s.linksHandler.ListLinks(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// withCORS добавляет CORS headers к обработчику
func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Список разрешенных origins для разработки
		allowedOrigins := []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:8080",
			"http://127.0.0.1:8080",
		}

		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")

		// Обработка preflight OPTIONS запросов
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		handler(w, r)
	}
}
