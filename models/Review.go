package models

import "time"

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	GameID    uint      `gorm:"not null;index" json:"gameId"`
	Rating    int       `gorm:"not null" json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateReviewInput - body of POST /reviews
type CreateReviewInput struct {
	GameID uint   `json:"gameId" validate:"required,gte=1"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"max=5000"`
}

// UpdateReviewInput - body of PUT /reviews/:id
type UpdateReviewInput struct {
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Text   *string `json:"text" validate:"omitempty,max=5000"`
}
