package models

import "time"

// Post publication states.
const (
	StatusDraft     = 0
	StatusPublished = 1
)

// Post represents a media review written by a user.
// The slug is derived from the title once at creation and never changes,
// even when the title is edited later.
type Post struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"size:200;uniqueIndex;not null" json:"title"`
	Slug    string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	UserID  uint   `gorm:"index;not null" json:"user_id"`
	Content string `gorm:"type:text;not null" json:"content"`
	Excerpt string `gorm:"type:text" json:"excerpt"`
	// No column default: draft is the zero value and must be written
	// explicitly, or gorm would silently publish drafts on insert.
	Status  int    `gorm:"not null" json:"status"`

	FeaturedImage   string `gorm:"size:512" json:"featured_image"`
	MediaCategoryID *uint  `gorm:"index" json:"media_category_id"`
	ReleaseYear     int    `json:"release_year"`
	MediaLink       string `gorm:"size:512" json:"media_link"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User          User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	MediaCategory *MediaCategory `gorm:"constraint:OnDelete:SET NULL;" json:"media_category"`
	Comments      []Comment      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments"`
	Likes         []User         `gorm:"many2many:post_likes;constraint:OnDelete:CASCADE;" json:"-"`
	Bookmarks     []User         `gorm:"many2many:post_bookmarks;constraint:OnDelete:CASCADE;" json:"-"`
}

// Published reports whether the post is visible on the public surface.
func (p Post) Published() bool {
	return p.Status == StatusPublished
}
