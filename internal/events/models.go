package events

import "time"

// EventType discriminates the two tracked event kinds on the wire.
type EventType string

const (
	EventTypePageView  EventType = "page_view"
	EventTypeLinkClick EventType = "link_click"
)

// Valid reports whether the wire value names a known event type.
func (t EventType) Valid() bool {
	return t == EventTypePageView || t == EventTypeLinkClick
}

// PageViewEvent is one visitor loading a bio page. Rows are append-only and
// immutable once written; only the ingest path creates them.
type PageViewEvent struct {
	ID         uint    `gorm:"primaryKey;autoIncrement"`
	LinkID     uint    `gorm:"index:idx_page_views_link_created;not null"`
	VisitorID  *string `gorm:"index"`
	IPHash     string  `gorm:"size:16"`
	Country    string
	City       string
	Region     string
	Referrer   *string
	UserAgent  string
	DeviceType string
	Browser    string
	OS         string
	CreatedAt  time.Time `gorm:"index:idx_page_views_link_created;not null"`
}

// LinkClickEvent is one visitor clicking a link item on a bio page.
// Append-only, immutable.
type LinkClickEvent struct {
	ID         uint  `gorm:"primaryKey;autoIncrement"`
	LinkID     uint  `gorm:"index:idx_link_clicks_link_created;not null"`
	LinkItemID *uint `gorm:"index"`
	LinkLabel  string
	LinkURL    string
	VisitorID  *string `gorm:"index"`
	IPHash     string  `gorm:"size:16"`
	Country    string
	Referrer   *string
	DeviceType string
	CreatedAt  time.Time `gorm:"index:idx_link_clicks_link_created;not null"`
}
