package repository

import (
	"LinkPulse-Backend/internal/domain"
	"context"
	"errors"
)

var (
	ErrLinkNotFound       = errors.New("link not found")
	ErrLinkExists         = errors.New("link id already exists")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Storage описывает хранилище отслеживаемых ссылок. Реализации: in-memory
// и PostgreSQL; выбор задается конфигурацией и не виден остальному коду.
type Storage interface {
	// SaveLink сохраняет новую ссылку; ErrLinkExists при коллизии id.
	SaveLink(ctx context.Context, link *domain.Link) error

	// GetLink возвращает копию ссылки по id (включая истекшие).
	GetLink(ctx context.Context, id string) (*domain.Link, error)

	// UpdateLink выполняет атомарный read-modify-write над одной ссылкой:
	// mutate получает приватную копию записи, и только успешный результат
	// записывается обратно. Ошибка mutate отменяет обновление целиком —
	// частичных мутаций не бывает. Конкурентные вызовы по одному id
	// сериализуются; по разным id проходят независимо.
	UpdateLink(ctx context.Context, id string, mutate func(*domain.Link) error) (*domain.Link, error)

	// ListLinks возвращает снимок всех ссылок; порядок не определен.
	ListLinks(ctx context.Context) ([]*domain.Link, error)

	// DeleteLink удаляет ссылку; ErrLinkNotFound, если ее уже нет.
	DeleteLink(ctx context.Context, id string) error
}
