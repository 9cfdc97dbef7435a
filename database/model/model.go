package model

import "time"

// Role values assigned to users. Role is fixed at creation; the normal flow
// never changes it afterwards.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type User struct {
	Id       int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"uniqueIndex"`
	Password string `json:"-"`
	Role     string `json:"role"`
	Prof     string `json:"prof"`
	Image    string `json:"image"`
}

type Item struct {
	Id          int    `json:"id" form:"id" gorm:"primaryKey;autoIncrement"`
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Image       string `json:"image"`
}

type Review struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId    int       `json:"userId" gorm:"index"`
	ItemId    int       `json:"itemId" gorm:"index"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReviewReply struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	ReviewId  int       `json:"reviewId" gorm:"index"`
	UserId    int       `json:"userId"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionRecord is a server-side session row backing the cookie store.
// The cookie carries only the record id; all state lives here, so rotating
// the id on privilege transitions invalidates the old cookie completely.
type SessionRecord struct {
	Id        string    `gorm:"primaryKey;size:64"`
	Data      []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
}
