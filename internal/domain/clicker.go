package domain

import "time"

// Clicker представляет учтенный отпечаток посетителя для ссылки.
// Пара (link_id, fingerprint) уникальна — это и есть множество clickers.
type Clicker struct {
	ID          int64     `gorm:"primaryKey;column:id" json:"id"`
	LinkID      string    `gorm:"column:link_id;size:16;not null;uniqueIndex:idx_clickers_link_fingerprint" json:"link_id"`
	Fingerprint string    `gorm:"column:fingerprint;size:64;not null;uniqueIndex:idx_clickers_link_fingerprint" json:"fingerprint"`
	FirstSeenAt time.Time `gorm:"column:first_seen_at;autoCreateTime" json:"first_seen_at"`
}

// TableName возвращает название таблицы для GORM
func (Clicker) TableName() string {
	return "clickers"
}
