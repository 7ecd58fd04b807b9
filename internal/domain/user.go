package domain

import (
	"strconv"
	"time"
)

// User owns listings and keeps a set of bookmarked listings.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"column:name;not null" json:"name"`
	Email        string     `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	Businesses   []Business `gorm:"foreignKey:UserID" json:"-"`
	Bookmarks    []Business `gorm:"many2many:bookmarks" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Viewer is the authenticated caller of a request. A nil *Viewer means anonymous.
type Viewer struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// ViewerFromUser builds the session shape of u.
func ViewerFromUser(u *User) *Viewer {
	return &Viewer{UserID: u.ID, Name: u.Name, Email: u.Email}
}

// SessionMap is what the session middleware stores under "user".
func (v *Viewer) SessionMap() map[string]interface{} {
	return map[string]interface{}{
		"user_id": strconv.FormatUint(uint64(v.UserID), 10),
		"name":    v.Name,
		"email":   v.Email,
	}
}
