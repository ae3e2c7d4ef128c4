package http

import (
	"LinkPulse-Backend/internal/analytics"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/internal/service"
	"LinkPulse-Backend/pkg/useragent"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// TrackHandler обработчик переходов по отслеживаемым ссылкам
type TrackHandler struct {
	tracker     *service.LinkTracker
	log         *zap.Logger
	redirectURL string
}

// NewTrackHandler создает новый обработчик переходов. redirectURL — фиксированная
// внешняя цель: она не зависит от состояния ссылки.
func NewTrackHandler(tracker *service.LinkTracker, log *zap.Logger, redirectURL string) *TrackHandler {
	return &TrackHandler{
		tracker:     tracker,
		log:         log,
		redirectURL: redirectURL,
	}
}

// HandleTrack учитывает клик и выполняет редирект.
// Отпечаток посетителя выводится здесь, на границе, из сетевого адреса и
// User-Agent; ядро видит только непрозрачную строку.
func (h *TrackHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/track/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	campaign := r.URL.Query().Get("campaign")
	ipAddress := extractIPAddress(r)
	userAgent := r.UserAgent()
	fingerprint := visitorFingerprint(ipAddress, userAgent)

	link, err := h.tracker.RecordClick(r.Context(), id, fingerprint, campaign)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			h.log.Debug("link not found", zap.String("id", id))
			http.NotFound(w, r)
		case errors.Is(err, analytics.ErrLinkExpired):
			h.log.Debug("click on expired link", zap.String("id", id))
			h.writeError(w, "link has expired", http.StatusGone)
		case errors.Is(err, repository.ErrStorageUnavailable):
			h.log.Error("storage unavailable on track", zap.String("id", id), zap.Error(err))
			h.writeError(w, "Service unavailable", http.StatusServiceUnavailable)
		default:
			h.log.Error("failed to process click", zap.String("id", id), zap.Error(err))
			h.writeError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	// Классификация устройства — только для аналитики в логах
	deviceType := detectDeviceType(userAgent)

	h.log.Info("tracked click",
		zap.String("id", id),
		zap.String("campaign", link.Campaign),
		zap.Uint64("clicks", link.Clicks),
		zap.Uint64("unique_clicks", link.UniqueClicks),
		zap.String("device_type", deviceType),
		zap.String("ip", ipAddress))

	http.Redirect(w, r, h.redirectURL, http.StatusFound)
}

func (h *TrackHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// visitorFingerprint сворачивает сетевой адрес и User-Agent в непрозрачную
// строку для дедупликации кликов одного посетителя
func visitorFingerprint(ipAddress, userAgent string) string {
	sum := sha256.Sum256([]byte(ipAddress + "|" + userAgent))
	return hex.EncodeToString(sum[:])[:16]
}

// extractIPAddress извлекает IP адрес из запроса с учетом прокси
func extractIPAddress(r *http.Request) string {
	// Проверяем заголовки прокси в порядке приоритета
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For может содержать список IP через запятую
		ips := strings.Split(ip, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	// Fallback к RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// detectDeviceType определяет тип устройства: через uap-go parser, если он
// инициализирован, иначе по ключевым словам
func detectDeviceType(userAgent string) string {
	if parser := useragent.GetGlobalParser(); parser != nil {
		return parser.Parse(userAgent).DeviceType
	}
	return useragent.DetectDeviceType(userAgent)
}
