package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID           uint                      `gorm:"primaryKey" json:"id"`
	Username     string                    `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email        string                    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string                    `gorm:"not null" json:"-"`
	Bio          string                    `json:"bio"`
	Avatar       string                    `json:"avatar"`
	Followers    datatypes.JSONSlice[uint] `json:"followers"`
	Following    datatypes.JSONSlice[uint] `json:"following"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

// AfterFind keeps the follow arrays non-nil so they serialize as [].
func (u *User) AfterFind(tx *gorm.DB) error {
	if u.Followers == nil {
		u.Followers = datatypes.JSONSlice[uint]{}
	}
	if u.Following == nil {
		u.Following = datatypes.JSONSlice[uint]{}
	}
	return nil
}

// PublicColumns is the projection used for reads that leave the server.
var PublicColumns = []string{"id", "username", "email", "bio", "avatar", "followers", "following", "created_at", "updated_at"}

// RegisterInput - used to validate registration
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// LoginInput accepts a username or an email as identifier.
type LoginInput struct {
	Identifier      string `json:"identifier" validate:"required_without=EmailOrUsername"`
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password" validate:"required"`
}

// Login returns whichever identifier field the client sent.
func (in LoginInput) Login() string {
	if in.Identifier != "" {
		return in.Identifier
	}
	return in.EmailOrUsername
}

// UpdateUserInput - used for profile edits
type UpdateUserInput struct {
	Bio    *string `json:"bio" validate:"omitempty,max=500"`
	Avatar *string `json:"avatar" validate:"omitempty,max=512"`
}
