package memory

import (
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/repository"
	"context"
	"sync"
)

// MemStorage реализует интерфейс Storage поверх map в памяти.
// Подходит для локального запуска и тестов.
type MemStorage struct {
	mu    sync.RWMutex
	links map[string]*domain.Link
	locks map[string]*sync.Mutex // update-lock на каждый id
}

func New() *MemStorage {
	return &MemStorage{
		links: make(map[string]*domain.Link),
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor возвращает мьютекс обновлений существующей ссылки, создавая его
// при первом обращении. Лок живет вместе с записью: DeleteLink удаляет оба,
// поэтому locks не растет на давно удаленных id. Обновления разных id не
// делят общий лок.
func (s *MemStorage) lockFor(id string) (*sync.Mutex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[id]; !ok {
		return nil, repository.ErrLinkNotFound
	}
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock, nil
}

func (s *MemStorage) SaveLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.links[link.ID]; exists {
		return repository.ErrLinkExists
	}
	s.links[link.ID] = link.Clone()
	return nil
}

func (s *MemStorage) GetLink(_ context.Context, id string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[id]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return link.Clone(), nil
}

// UpdateLink держит per-id лок на весь цикл read-modify-write, поэтому
// конкурентные клики по одной ссылке не теряют инкременты. mutate работает
// с копией: ошибка mutate оставляет сохраненную запись нетронутой.
func (s *MemStorage) UpdateLink(_ context.Context, id string, mutate func(*domain.Link) error) (*domain.Link, error) {
	for {
		lock, err := s.lockFor(id)
		if err != nil {
			return nil, err
		}
		lock.Lock()

		s.mu.RLock()
		stored, ok := s.links[id]
		current := s.locks[id]
		s.mu.RUnlock()
		// Пока брали лок, запись могли удалить и пересоздать заново —
		// у новой записи свой лок, и сериализоваться нужно на нем
		if current != lock {
			lock.Unlock()
			continue
		}
		if !ok {
			lock.Unlock()
			return nil, repository.ErrLinkNotFound
		}

		next := stored.Clone()
		if err := mutate(next); err != nil {
			lock.Unlock()
			return nil, err
		}

		s.mu.Lock()
		// Ссылку мог удалить reaper, пока выполнялся mutate; проверка лока
		// отсекает и запись, пересозданную под тем же id
		if _, ok := s.links[id]; !ok || s.locks[id] != lock {
			s.mu.Unlock()
			lock.Unlock()
			return nil, repository.ErrLinkNotFound
		}
		s.links[id] = next
		s.mu.Unlock()
		lock.Unlock()

		return next.Clone(), nil
	}
}

func (s *MemStorage) ListLinks(_ context.Context) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	links := make([]*domain.Link, 0, len(s.links))
	for _, link := range s.links {
		links = append(links, link.Clone())
	}
	return links, nil
}

func (s *MemStorage) DeleteLink(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[id]; !ok {
		return repository.ErrLinkNotFound
	}
	delete(s.links, id)
	delete(s.locks, id)
	return nil
}
