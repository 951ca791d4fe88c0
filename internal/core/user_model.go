package core

import (
	"context"
	"time"
)

// User is a console operator account.
type User struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

// UserService provides read access to operator accounts for authentication.
type UserService interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, userID int) (*User, error)
}
