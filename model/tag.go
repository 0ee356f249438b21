package model

// Tag is a free-form label shared between songs.
type Tag struct {
	ID      int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name    string `json:"name" gorm:"size:100;not null"`
	NameKey string `json:"-" gorm:"size:100;not null;uniqueIndex"`
}

func (Tag) TableName() string {
	return "tags"
}

// TagCount is a tag with the number of songs carrying it.
type TagCount struct {
	Tag
	SongCount int64 `json:"songCount"`
}
