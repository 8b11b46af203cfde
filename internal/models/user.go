package models

import (
	"database/sql/driver"
	"errors"
	"strings"
	"time"
)

type AccessLevel string

const (
	AccessAdmin AccessLevel = "admin"
	AccessUser  AccessLevel = "user"
)

// StringArray maps a Go string slice onto a PostgreSQL text[] column
type StringArray []string

// Scan implements the sql.Scanner interface
func (sa *StringArray) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*sa = StringArray{}
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return errors.New("failed to scan StringArray")
	}

	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "{"), "}")
	if raw == "" {
		*sa = StringArray{}
		return nil
	}
	*sa = StringArray(strings.Split(raw, ","))
	return nil
}

// Value implements the driver.Valuer interface
func (sa StringArray) Value() (driver.Value, error) {
	if sa == nil {
		return "{}", nil
	}
	return "{" + strings.Join(sa, ",") + "}", nil
}

// GormDataType implements the GormDataTypeInterface
func (StringArray) GormDataType() string {
	return "text[]"
}

// User is an account that can host meetings. Guests joining by room code have no User.
type User struct {
	ID           string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string      `json:"email" gorm:"uniqueIndex;not null;type:varchar(255)"`
	Name         string      `json:"name" gorm:"not null;type:varchar(255)"`
	Provider     string      `json:"provider" gorm:"not null;type:varchar(50);index"`
	AvatarURL    string      `json:"avatarUrl" gorm:"column:avatar_url;type:varchar(255)"`
	Password     string      `json:"-" gorm:"type:varchar(255)"`
	RefreshToken string      `json:"-" gorm:"column:refresh_token;type:text"`
	Accesses     StringArray `json:"accesses" gorm:"type:text[]"`
	IsActive     bool        `json:"isActive" gorm:"not null;default:true"`
	CreatedAt    time.Time   `json:"createdAt" gorm:"autoCreateTime;not null"`
	UpdatedAt    time.Time   `json:"updatedAt" gorm:"autoUpdateTime;not null"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// HasAccess checks if user has specific access level
func (u *User) HasAccess(level AccessLevel) bool {
	for _, access := range u.Accesses {
		if access == string(level) {
			return true
		}
	}
	return false
}

// RevokedToken is a refresh token that was logged out before it expired.
// Rows are purged once ExpiresAt has passed.
type RevokedToken struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Token     string    `json:"-" gorm:"type:text;not null;uniqueIndex"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);not null;index"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;not null"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}

// Expired reports whether the token would be rejected anyway at now
func (t RevokedToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
