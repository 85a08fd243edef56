package models

import "time"

// Profile extends a User with an avatar and free-text media preferences.
// Exactly one profile exists per account; it is created in the same
// transaction as the account and never deleted on its own.
type Profile struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	AvatarURL string `gorm:"size:512" json:"avatar_url"`
	Bio       string `gorm:"type:text" json:"bio"`
	Country   string `gorm:"size:100" json:"country"`

	TopMovies        string `gorm:"size:255" json:"top_movies"`
	TopSeries        string `gorm:"size:255" json:"top_series"`
	TopMusicAlbums   string `gorm:"size:255" json:"top_music_albums"`
	TopBooks         string `gorm:"size:255" json:"top_books"`
	TopPodcasts      string `gorm:"size:255" json:"top_podcasts"`
	TopMiscellaneous string `gorm:"size:255" json:"top_miscellaneous"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
