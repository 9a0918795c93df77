package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// List is a user-curated, ordered collection of games.
type List struct {
	ID          uint                      `gorm:"primaryKey" json:"id"`
	OwnerID     uint                      `gorm:"not null;index" json:"ownerId"`
	Title       string                    `gorm:"not null" json:"title"`
	Description string                    `json:"description"`
	Games       datatypes.JSONSlice[uint] `json:"games"`
	IsPublic    bool                      `gorm:"not null" json:"isPublic"`
	CreatedAt   time.Time                 `json:"createdAt"`
	UpdatedAt   time.Time                 `json:"updatedAt"`
}

func (l *List) AfterFind(tx *gorm.DB) error {
	if l.Games == nil {
		l.Games = datatypes.JSONSlice[uint]{}
	}
	return nil
}

// HasGame reports whether gameID is already on the list.
func (l *List) HasGame(gameID uint) bool {
	for _, id := range l.Games {
		if id == gameID {
			return true
		}
	}
	return false
}

// CreateListInput - body of POST /lists
type CreateListInput struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Games       []uint `json:"games" validate:"omitempty,dive,gte=1"`
	IsPublic    *bool  `json:"isPublic"`
}

// UpdateListInput - body of PUT /lists/:id
type UpdateListInput struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Games       *[]uint `json:"games" validate:"omitempty,dive,gte=1"`
	IsPublic    *bool   `json:"isPublic"`
}

// ListGameInput - body of POST /lists/:id/games
type ListGameInput struct {
	GameID uint `json:"gameId" validate:"required,gte=1"`
}
