package models

import "time"

// RedirectScheme is prepended to every stored URL when redirecting.
const RedirectScheme = "http://"

// URL is the persisted mapping between an identifier, its alias and the original URL.
// Records are written once and never updated or deleted.
type URL struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement:false"`
	Alias       string    `gorm:"uniqueIndex;size:16;not null"`
	OriginalURL string    `gorm:"uniqueIndex;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// TableName implements the GORM tabler interface.
func (URL) TableName() string { return "urls" }

// RedirectTarget returns the location a resolved alias redirects to.
// The stored URL is always prefixed with http://, whatever scheme it carries.
func (u *URL) RedirectTarget() string {
	return RedirectScheme + u.OriginalURL
}
