package domain

import "time"

// Link представляет отслеживаемую ссылку с ограниченным сроком жизни
type Link struct {
	ID             string     `gorm:"primaryKey;column:id;size:16" json:"id"`
	Campaign       string     `gorm:"column:campaign;size:100;not null" json:"campaign"`
	Clicks         uint64     `gorm:"column:clicks;not null;default:0" json:"clicks"`
	UniqueClicks   uint64     `gorm:"column:unique_clicks;not null;default:0" json:"unique_clicks"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	ExpiresAt      time.Time  `gorm:"column:expires_at;index" json:"expires_at"`
	LastAccessedAt *time.Time `gorm:"column:last_accessed_at" json:"last_accessed_at,omitempty"`

	// Clickers содержит отпечатки посетителей, уже учтенные в unique_clicks.
	// Хранится отдельной таблицей (см. Clicker), поэтому GORM его игнорирует.
	Clickers map[string]struct{} `gorm:"-" json:"-"`
}

// TableName возвращает название таблицы для GORM
func (Link) TableName() string {
	return "links"
}

// IsExpired сообщает, истек ли срок действия ссылки на момент now.
// Граница строгая: в точный момент expires_at ссылка еще жива.
func (l *Link) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// HasClicker проверяет, учтен ли уже данный отпечаток посетителя
func (l *Link) HasClicker(fingerprint string) bool {
	_, ok := l.Clickers[fingerprint]
	return ok
}

// AddClicker добавляет отпечаток в множество учтенных посетителей
func (l *Link) AddClicker(fingerprint string) {
	if l.Clickers == nil {
		l.Clickers = make(map[string]struct{})
	}
	l.Clickers[fingerprint] = struct{}{}
}

// Clone возвращает глубокую копию ссылки. Хранилища отдают наружу только
// копии, чтобы мутации снаружи не задевали сохраненное состояние.
func (l *Link) Clone() *Link {
	cp := *l
	if l.LastAccessedAt != nil {
		t := *l.LastAccessedAt
		cp.LastAccessedAt = &t
	}
	if l.Clickers != nil {
		cp.Clickers = make(map[string]struct{}, len(l.Clickers))
		for fp := range l.Clickers {
			cp.Clickers[fp] = struct{}{}
		}
	}
	return &cp
}
