package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Game struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	RawgID      *int64                      `gorm:"uniqueIndex" json:"rawgId,omitempty"`
	Title       string                      `gorm:"not null;index" json:"title"`
	Slug        string                      `json:"slug"`
	Description string                      `json:"description"`
	Released    string                      `json:"released"`
	Platforms   datatypes.JSONSlice[string] `json:"platforms"`
	Genres      datatypes.JSONSlice[string] `json:"genres"`
	Cover       string                      `json:"cover"`
	Rating      float64                     `gorm:"not null;default:0" json:"rating"`
	RatingCount int64                       `gorm:"not null;default:0" json:"ratingCount"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

func (g *Game) AfterFind(tx *gorm.DB) error {
	if g.Platforms == nil {
		g.Platforms = datatypes.JSONSlice[string]{}
	}
	if g.Genres == nil {
		g.Genres = datatypes.JSONSlice[string]{}
	}
	return nil
}
