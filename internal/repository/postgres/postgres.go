package postgres

import (
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStorage реализует интерфейс Storage для PostgreSQL
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New создает новый экземпляр PostgreSQL storage
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// SaveLink сохраняет новую ссылку. Коллизия id транслируется в ErrLinkExists,
// чтобы сервис мог перегенерировать идентификатор.
func (s *PostgresStorage) SaveLink(ctx context.Context, link *domain.Link) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrLinkExists
		}
		s.log.Error("failed to save link", zap.String("id", link.ID), zap.Error(err))
		return unavailable("failed to save link", err)
	}

	s.log.Info("saved new link", zap.String("id", link.ID), zap.String("campaign", link.Campaign))
	return nil
}

// GetLink получает ссылку по id. Истекшие ссылки тоже возвращаются:
// путь статистики обслуживает их до тех пор, пока их не удалит reaper.
func (s *PostgresStorage) GetLink(ctx context.Context, id string) (*domain.Link, error) {
	var link domain.Link

	err := s.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.String("id", id), zap.Error(err))
		return nil, unavailable("failed to get link", err)
	}

	return &link, nil
}

// UpdateLink выполняет read-modify-write под блокировкой строки
// (SELECT ... FOR UPDATE), поэтому конкурентные клики по одному id
// не теряют инкременты. Ошибка mutate откатывает транзакцию целиком.
func (s *PostgresStorage) UpdateLink(ctx context.Context, id string, mutate func(*domain.Link) error) (*domain.Link, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, unavailable("failed to begin transaction", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var link domain.Link
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		tx.Rollback()
		s.log.Error("failed to lock link for update", zap.String("id", id), zap.Error(err))
		return nil, unavailable("failed to lock link", err)
	}

	// Подтягиваем множество учтенных отпечатков
	var fingerprints []string
	if err := tx.Model(&domain.Clicker{}).Where("link_id = ?", id).Pluck("fingerprint", &fingerprints).Error; err != nil {
		tx.Rollback()
		s.log.Error("failed to load clickers", zap.String("id", id), zap.Error(err))
		return nil, unavailable("failed to load clickers", err)
	}
	link.Clickers = make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		link.Clickers[fp] = struct{}{}
	}

	before := link.Clone()
	if err := mutate(&link); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Новые отпечатки, появившиеся в mutate, становятся строками clickers
	for fp := range link.Clickers {
		if !before.HasClicker(fp) {
			clicker := domain.Clicker{LinkID: id, Fingerprint: fp}
			if err := tx.Create(&clicker).Error; err != nil {
				tx.Rollback()
				s.log.Error("failed to record clicker", zap.String("id", id), zap.Error(err))
				return nil, unavailable("failed to record clicker", err)
			}
		}
	}

	updates := map[string]interface{}{
		"clicks":           link.Clicks,
		"unique_clicks":    link.UniqueClicks,
		"campaign":         link.Campaign,
		"last_accessed_at": link.LastAccessedAt,
	}
	if err := tx.Model(&domain.Link{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		tx.Rollback()
		s.log.Error("failed to update link", zap.String("id", id), zap.Error(err))
		return nil, unavailable("failed to update link", err)
	}

	if err := tx.Commit().Error; err != nil {
		s.log.Error("failed to commit link update", zap.String("id", id), zap.Error(err))
		return nil, unavailable("failed to commit link update", err)
	}

	return &link, nil
}

// ListLinks возвращает снимок всех ссылок
func (s *PostgresStorage) ListLinks(ctx context.Context) ([]*domain.Link, error) {
	var links []*domain.Link

	if err := s.db.WithContext(ctx).Find(&links).Error; err != nil {
		s.log.Error("failed to list links", zap.Error(err))
		return nil, unavailable("failed to list links", err)
	}

	return links, nil
}

// DeleteLink удаляет ссылку вместе с ее clickers
func (s *PostgresStorage) DeleteLink(ctx context.Context, id string) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return unavailable("failed to begin transaction", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("link_id = ?", id).Delete(&domain.Clicker{}).Error; err != nil {
		tx.Rollback()
		s.log.Error("failed to delete clickers", zap.String("id", id), zap.Error(err))
		return unavailable("failed to delete clickers", err)
	}

	result := tx.Where("id = ?", id).Delete(&domain.Link{})
	if result.Error != nil {
		tx.Rollback()
		s.log.Error("failed to delete link", zap.String("id", id), zap.Error(result.Error))
		return unavailable("failed to delete link", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return repository.ErrLinkNotFound
	}

	if err := tx.Commit().Error; err != nil {
		s.log.Error("failed to commit link deletion", zap.String("id", id), zap.Error(err))
		return unavailable("failed to commit link deletion", err)
	}

	s.log.Info("deleted link", zap.String("id", id))
	return nil
}

// unavailable помечает инфраструктурную ошибку как ErrStorageUnavailable,
// сохраняя исходную причину в тексте
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", repository.ErrStorageUnavailable, op, err)
}
