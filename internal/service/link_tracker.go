package service

import (
	"LinkPulse-Backend/internal/analytics"
	"LinkPulse-Backend/internal/config"
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/pkg/random"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

const maxIDAttempts = 5

// maxExpiresHours — наибольший срок жизни, представимый как time.Duration.
// Большее значение часов переполняет int64 наносекунд и дает ExpiresAt
// в прошлом.
const maxExpiresHours = float64(math.MaxInt64 / time.Hour)

var (
	// ErrInvalidExpiry отклоняет создание ссылки с некорректным сроком жизни
	ErrInvalidExpiry = errors.New("expires_in_hours must be a finite number of at least 1")
	// ErrIDExhausted означает, что все попытки сгенерировать свободный id
	// закончились коллизиями
	ErrIDExhausted = errors.New("could not allocate a unique link id")
)

// LinkTracker оркестрирует жизненный цикл отслеживаемых ссылок:
// создание, учет кликов, статистика и перечисление.
type LinkTracker struct {
	storage repository.Storage
	config  *config.Tracker
	log     *zap.Logger
	now     func() time.Time
}

// NewLinkTracker создает новый сервис отслеживания ссылок
func NewLinkTracker(storage repository.Storage, cfg *config.Tracker, log *zap.Logger) *LinkTracker {
	return &LinkTracker{
		storage: storage,
		config:  cfg,
		log:     log,
		now:     time.Now,
	}
}

// Create выпускает новую ссылку со сроком жизни expiresInHours часов
// (от 1 до maxExpiresHours включительно). id генерируется криптостойко;
// коллизия в хранилище приводит к повторной генерации, не более
// maxIDAttempts раз.
func (s *LinkTracker) Create(ctx context.Context, expiresInHours float64, campaign string) (*domain.Link, error) {
	if math.IsNaN(expiresInHours) || expiresInHours < 1 || expiresInHours > maxExpiresHours {
		return nil, ErrInvalidExpiry
	}

	now := s.now()
	expires := now.Add(time.Duration(expiresInHours * float64(time.Hour)))

	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id, err := random.NewRandomString(s.config.IDLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate link id: %w", err)
		}

		link := &domain.Link{
			ID:        id,
			Campaign:  campaign,
			CreatedAt: now,
			ExpiresAt: expires,
		}

		err = s.storage.SaveLink(ctx, link)
		if err == nil {
			s.log.Info("created link",
				zap.String("id", id),
				zap.String("campaign", campaign),
				zap.Float64("expires_in_hours", expiresInHours))
			return link, nil
		}
		if errors.Is(err, repository.ErrLinkExists) {
			// Коллизия восстанавливается локально и наружу не видна
			s.log.Debug("link id collision, regenerating",
				zap.String("id", id), zap.Int("attempt", attempt))
			continue
		}
		return nil, fmt.Errorf("failed to save link: %w", err)
	}

	return nil, ErrIDExhausted
}

// RecordClick учитывает клик по ссылке атомарно: вся бухгалтерия выполняется
// внутри UpdateLink хранилища, поэтому одновременные клики по одному id не
// теряют инкременты. ErrLinkNotFound и analytics.ErrLinkExpired доходят до
// вызывающего без изменений; при ошибке запись остается нетронутой.
func (s *LinkTracker) RecordClick(ctx context.Context, id, fingerprint, campaign string) (*domain.Link, error) {
	updated, err := s.storage.UpdateLink(ctx, id, func(link *domain.Link) error {
		return analytics.ApplyClick(link, fingerprint, campaign, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("recorded click",
		zap.String("id", id),
		zap.Uint64("clicks", updated.Clicks),
		zap.Uint64("unique_clicks", updated.UniqueClicks))
	return updated, nil
}

// GetStats возвращает ссылку вместе с производными полями отчетности.
// Чтение никогда не мутирует счетчики; истекшие ссылки обслуживаются,
// пока их не удалил reaper.
func (s *LinkTracker) GetStats(ctx context.Context, id string) (*domain.Link, analytics.StatsView, error) {
	link, err := s.storage.GetLink(ctx, id)
	if err != nil {
		return nil, analytics.StatsView{}, err
	}

	return link, analytics.Project(link, s.now()), nil
}

// LinkStatus — ссылка с флагом активности для перечисления
type LinkStatus struct {
	Link     *domain.Link
	IsActive bool
}

// LinkList — результат перечисления всех ссылок
type LinkList struct {
	Count  int
	Active int
	Links  []LinkStatus
}

// ListAll перечисляет снимок всех ссылок. Флаг активности для всех записей
// считается от одного показания часов; запись, истекшая посреди перечисления,
// просто вернется с IsActive=false.
func (s *LinkTracker) ListAll(ctx context.Context) (*LinkList, error) {
	links, err := s.storage.ListLinks(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	list := &LinkList{
		Count: len(links),
		Links: make([]LinkStatus, 0, len(links)),
	}
	for _, link := range links {
		active := analytics.IsActive(link, now)
		if active {
			list.Active++
		}
		list.Links = append(list.Links, LinkStatus{Link: link, IsActive: active})
	}

	return list, nil
}
