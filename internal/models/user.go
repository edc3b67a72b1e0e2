package models

import "time"

// User is the chat core's view of an account in the identity store.
// Credentials are managed elsewhere; only identity and role are read here.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserName string `gorm:"size:256;index" json:"userName"`
	Email    string `gorm:"size:256;index" json:"email"`
	FullName string `gorm:"size:200" json:"fullName"`
	Role     Role   `gorm:"type:text;not null;default:'Client';index" json:"role"`
	// TelegramChatID links the account to a Telegram chat for offline notifications.
	TelegramChatID *int64 `gorm:"uniqueIndex" json:"-"`
	// Language selects the notification translation ("en", "uk").
	Language  string    `gorm:"size:8;default:'en'" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// DisplayName returns the user name, falling back to the email and then to "Unknown".
func (u *User) DisplayName() string {
	if u == nil {
		return "Unknown"
	}
	if u.UserName != "" {
		return u.UserName
	}
	if u.Email != "" {
		return u.Email
	}
	return "Unknown"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role.IsAdmin()
}
