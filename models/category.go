package models

// MediaCategory groups posts by the kind of media they review, e.g. movies or books.
type MediaCategory struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

// TableName keeps the plural the schema has always used.
func (MediaCategory) TableName() string {
	return "media_categories"
}
