package model

import (
	"strings"
	"time"
)

// Genre is a node in the genre forest. ParentID refers to another genre by id.
type Genre struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	NameKey     string    `json:"-" gorm:"size:100;not null;uniqueIndex"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	ParentID    *int64    `json:"parentId,omitempty" gorm:"index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Genre) TableName() string {
	return "genres"
}

// GenreCount is a genre annotated with the number of songs assigned directly to it.
type GenreCount struct {
	Genre
	ParentName string `json:"parentName,omitempty"`
	SongCount  int64  `json:"songCount"`
}

// NameKey returns the case-folded form used for uniqueness checks.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
