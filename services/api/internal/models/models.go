package models

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// User is the identity record. PasswordHash is nil for OAuth-only accounts,
// RefreshHash is nil whenever no session is active.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash *string   `json:"-"`
	Role         string    `gorm:"not null;default:USER"    json:"role"`
	RefreshHash  *string   `json:"-"`
	GoogleID     *string   `gorm:"uniqueIndex"              json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
