package links

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// LinkNotFoundError represents an error when a bio link cannot be resolved
type LinkNotFoundError struct {
	Handle string
}

func (e *LinkNotFoundError) Error() string {
	return fmt.Sprintf("bio link not found for: %s", e.Handle)
}

// NewLinkNotFoundError creates a new LinkNotFoundError
func NewLinkNotFoundError(handle string) *LinkNotFoundError {
	return &LinkNotFoundError{Handle: handle}
}

// BioLink represents one creator's public bio page. The analytics subsystem
// only ever reads these rows; creation and editing belong to the dashboard.
type BioLink struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatorID    uint      `gorm:"index;not null" json:"creator_id"`
	Slug         string    `gorm:"uniqueIndex;not null" json:"slug"`
	CustomDomain *string   `gorm:"uniqueIndex" json:"custom_domain"`
	CreatedAt    time.Time `json:"created_at"`
}

// GetByID retrieves a bio link by its primary key.
func GetByID(db *gorm.DB, id uint) (*BioLink, error) {
	var link BioLink
	if err := db.Where("id = ?", id).First(&link).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewLinkNotFoundError(fmt.Sprintf("id:%d", id))
		}
		return nil, fmt.Errorf("unexpected error querying bio link: %w", err)
	}
	return &link, nil
}

// Resolve looks a bio link up by handle: case-insensitive slug match first,
// then case-insensitive custom-domain match. At most one link resolves for a
// given handle at read time.
func Resolve(db *gorm.DB, handle string) (*BioLink, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if handle == "" {
		return nil, NewLinkNotFoundError(handle)
	}

	var link BioLink
	err := db.Where("LOWER(slug) = ?", handle).First(&link).Error
	if err == nil {
		return &link, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("unexpected error querying bio link: %w", err)
	}

	err = db.Where("custom_domain IS NOT NULL AND LOWER(custom_domain) = ?", handle).First(&link).Error
	if err == nil {
		return &link, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("unexpected error querying bio link: %w", err)
	}

	return nil, NewLinkNotFoundError(handle)
}

// ForCreators returns every bio link owned by any of the given creators in a
// single query. Rollups rely on this staying one round trip regardless of
// roster size.
func ForCreators(db *gorm.DB, creatorIDs []uint) ([]BioLink, error) {
	if len(creatorIDs) == 0 {
		return []BioLink{}, nil
	}

	var result []BioLink
	if err := db.Where("creator_id IN ?", creatorIDs).Order("id").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to load bio links for creators: %w", err)
	}
	return result, nil
}
