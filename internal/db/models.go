package db

import "time"

// SeenLink maps localwire.seen_links, one row per delivered dedup key.
type SeenLink struct {
	Region   string `gorm:"column:region;type:text;primaryKey"`
	LinkKey  string `gorm:"column:link_key;type:text;primaryKey"`
	Position int64  `gorm:"column:position;type:bigint;not null"`
	// MarkedAt is set by the database on first insert and kept across flushes.
	MarkedAt time.Time `gorm:"column:marked_at;type:timestamptz;not null;default:now()"`
}

func (SeenLink) TableName() string { return "localwire.seen_links" }

// SeenLinksTable is the qualified table name used by hand-built queries.
const SeenLinksTable = "localwire.seen_links"

func autoMigrateModels() []any {
	return []any{
		&SeenLink{},
	}
}
