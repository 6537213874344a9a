package models

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/billsync/billsync_backend/utils"
)

type User struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:120;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:user" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type NewUser struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

func (input *NewUser) validate(ctx context.Context, db *gorm.DB) error {
	if !utils.IsValidEmail(input.Email) {
		return utils.Invalid("invalid email address")
	}
	if input.Role != "" && input.Role != RoleAdmin && input.Role != RoleUser {
		return utils.Invalid("invalid role")
	}
	if err := utils.ValidateUnique[User](ctx, db, "email", strings.ToLower(input.Email), 0); err != nil {
		return err
	}
	return nil
}

func CreateUser(ctx context.Context, db *gorm.DB, input NewUser) (*User, error) {
	if err := input.validate(ctx, db); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = RoleUser
	}

	user := User{
		Email:        strings.ToLower(input.Email),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AuthenticateUser verifies credentials and returns the matching user.
// Lookup is case-insensitive on email; the caller issues the token.
func AuthenticateUser(ctx context.Context, db *gorm.DB, email string, password string) (*User, error) {
	var user User
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.Unauthorized("invalid email or password")
		}
		return nil, err
	}

	if err := utils.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, utils.Unauthorized("invalid email or password")
	}
	return &user, nil
}

func GetUser(ctx context.Context, db *gorm.DB, id int) (*User, error) {
	return utils.FetchModel[User](ctx, db, id)
}

func ChangeUserPassword(ctx context.Context, db *gorm.DB, id int, currentPassword string, newPassword string) error {
	user, err := utils.FetchModel[User](ctx, db, id)
	if err != nil {
		return err
	}

	if err := utils.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return utils.Unauthorized("current password is incorrect")
	}
	if len(newPassword) < 6 {
		return utils.Invalid("new password must be at least 6 characters")
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Model(user).Update("password_hash", string(hash)).Error
}
