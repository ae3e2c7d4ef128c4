package http

import (
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/internal/service"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LinksHandler обработчик для работы с отслеживаемыми ссылками
type LinksHandler struct {
	tracker       *service.LinkTracker
	log           *zap.Logger
	baseURL       string
	defaultExpiry float64
}

// NewLinksHandler создает новый обработчик ссылок
func NewLinksHandler(tracker *service.LinkTracker, log *zap.Logger, baseURL string, defaultExpiry float64) *LinksHandler {
	return &LinksHandler{
		tracker:       tracker,
		log:           log,
		baseURL:       baseURL,
		defaultExpiry: defaultExpiry,
	}
}

// CreateLinkRequest структура запроса создания ссылки
type CreateLinkRequest struct {
	ExpiresInHours *float64 `json:"expires_in_hours,omitempty"`
	Campaign       string   `json:"campaign,omitempty"`
}

// CreateLinkResponse структура ответа создания ссылки
type CreateLinkResponse struct {
	ID       string `json:"id"`
	Expires  string `json:"expires"`
	Campaign string `json:"campaign"`
	ShareURL string `json:"share_url"`
}

// GetStatsResponse структура ответа статистики
type GetStatsResponse struct {
	ID               string `json:"id"`
	Clicks           uint64 `json:"clicks"`
	UniqueClicks     uint64 `json:"unique_clicks"`
	Created          string `json:"created"`
	Expires          string `json:"expires"`
	IsActive         bool   `json:"is_active"`
	Campaign         string `json:"campaign"`
	LastAccessed     string `json:"last_accessed,omitempty"`
	TimeRemaining    string `json:"time_remaining"`
	ClickThroughRate string `json:"click_through_rate"`
}

// LinkInfo информация о ссылке в списке
type LinkInfo struct {
	ID           string `json:"id"`
	Created      string `json:"created"`
	Expires      string `json:"expires"`
	Clicks       uint64 `json:"clicks"`
	UniqueClicks uint64 `json:"unique_clicks"`
	Campaign     string `json:"campaign"`
	IsActive     bool   `json:"is_active"`
}

// ListLinksResponse структура ответа списка ссылок
type ListLinksResponse struct {
	Count  int        `json:"count"`
	Active int        `json:"active"`
	Links  []LinkInfo `json:"links"`
}

// CreateLink создает новую отслеживаемую ссылку
//
//	@Summary		Create a tracking link
//	@Description	Issue a short-lived tracking link with click accounting
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateLinkRequest	true	"Link creation request"
//	@Success		201		{object}	CreateLinkResponse	"Link created successfully"
//	@Failure		400		{object}	map[string]string	"Invalid request data"
//	@Router			/api/links [post]
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.log.Debug("invalid create link request", zap.Error(err))
			h.writeError(w, "Invalid request format", http.StatusBadRequest)
			return
		}
	}

	// Значения по умолчанию — забота границы, не ядра
	expiresInHours := h.defaultExpiry
	if req.ExpiresInHours != nil {
		expiresInHours = *req.ExpiresInHours
	}
	campaign := req.Campaign
	if campaign == "" {
		campaign = "default"
	}

	link, err := h.tracker.Create(r.Context(), expiresInHours, campaign)
	if err != nil {
		if errors.Is(err, service.ErrInvalidExpiry) {
			h.writeError(w, "expires_in_hours must be at least 1", http.StatusBadRequest)
			return
		}
		h.log.Error("failed to create link", zap.Error(err))
		h.writeError(w, "Failed to create link", h.failureStatus(err))
		return
	}

	response := CreateLinkResponse{
		ID:       link.ID,
		Expires:  link.ExpiresAt.Format(time.RFC3339),
		Campaign: link.Campaign,
		ShareURL: fmt.Sprintf("%s/track/%s?campaign=%s", h.baseURL, link.ID, url.QueryEscape(link.Campaign)),
	}

	h.writeJSON(w, response, http.StatusCreated)
}

// GetStats возвращает статистику по ссылке. Чтение не мутирует счетчики, и
// истекшие ссылки обслуживаются до удаления reaper'ом.
//
//	@Summary		Get link statistics
//	@Tags			Links
//	@Produce		json
//	@Param			id	path		string	true	"Link id"
//	@Success		200	{object}	GetStatsResponse
//	@Failure		404	{object}	map[string]string	"Link not found"
//	@Router			/api/stats/{id} [get]
func (h *LinksHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	// Извлекаем id из URL path
	id := strings.TrimPrefix(r.URL.Path, "/api/stats/")
	if id == "" || strings.Contains(id, "/") {
		h.writeError(w, "Link id is required", http.StatusBadRequest)
		return
	}

	link, view, err := h.tracker.GetStats(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			h.writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get link stats", zap.String("id", id), zap.Error(err))
		h.writeError(w, "Failed to retrieve link", h.failureStatus(err))
		return
	}

	response := GetStatsResponse{
		ID:               link.ID,
		Clicks:           link.Clicks,
		UniqueClicks:     link.UniqueClicks,
		Created:          link.CreatedAt.Format(time.RFC3339),
		Expires:          link.ExpiresAt.Format(time.RFC3339),
		IsActive:         view.IsActive,
		Campaign:         link.Campaign,
		TimeRemaining:    view.TimeRemaining,
		ClickThroughRate: view.ClickThroughRate,
	}
	if link.LastAccessedAt != nil {
		response.LastAccessed = link.LastAccessedAt.Format(time.RFC3339)
	}

	h.writeJSON(w, response, http.StatusOK)
}

// ListLinks возвращает список всех ссылок со счетчиками и флагом активности
//
//	@Summary		List all links
//	@Tags			Links
//	@Produce		json
//	@Success		200	{object}	ListLinksResponse
//	@Router			/api/links [get]
func (h *LinksHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	list, err := h.tracker.ListAll(r.Context())
	if err != nil {
		h.log.Error("failed to list links", zap.Error(err))
		h.writeError(w, "Failed to retrieve links", h.failureStatus(err))
		return
	}

	linkInfos := make([]LinkInfo, 0, len(list.Links))
	for _, status := range list.Links {
		link := status.Link
		linkInfos = append(linkInfos, LinkInfo{
			ID:           link.ID,
			Created:      link.CreatedAt.Format(time.RFC3339),
			Expires:      link.ExpiresAt.Format(time.RFC3339),
			Clicks:       link.Clicks,
			UniqueClicks: link.UniqueClicks,
			Campaign:     link.Campaign,
			IsActive:     status.IsActive,
		})
	}

	h.writeJSON(w, ListLinksResponse{
		Count:  list.Count,
		Active: list.Active,
		Links:  linkInfos,
	}, http.StatusOK)
}

// Helper methods

func (h *LinksHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *LinksHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// failureStatus различает недоступность backend'а и прочие сбои
func (h *LinksHandler) failureStatus(err error) int {
	if errors.Is(err, repository.ErrStorageUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
