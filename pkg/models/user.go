package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Address struct {
	Street     string `gorm:"type:varchar(200)" bson:"street" json:"street"`
	City       string `gorm:"type:varchar(100)" bson:"city" json:"city"`
	State      string `gorm:"type:varchar(100)" bson:"state" json:"state"`
	Country    string `gorm:"type:varchar(100)" bson:"country" json:"country"`
	PostalCode string `gorm:"type:varchar(20)" bson:"postalCode" json:"postal_code"`
}

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" bson:"name" json:"name"`
	Email        string    `gorm:"type:varchar(100);uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash string    `gorm:"type:varchar(100);not null" bson:"password" json:"-"`
	MobileNumber string    `gorm:"type:varchar(20)" bson:"mobileNumber" json:"mobile_number"`
	Address      Address   `gorm:"embedded;embeddedPrefix:address_" bson:"address" json:"address"`
	IsVerified   bool      `gorm:"default:false" bson:"isVerified" json:"is_verified"`
	Role         string    `gorm:"type:varchar(20);default:'user'" bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Identity is the projection of a user that is safe to cache in a session
// and hand back to the client for form pre-fill.
type Identity struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	MobileNumber string  `json:"mobile_number"`
	Address      Address `json:"address"`
	Role         string  `json:"role"`
}

func (u *User) Identity() *Identity {
	return &Identity{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		MobileNumber: u.MobileNumber,
		Address:      u.Address,
		Role:         u.Role,
	}
}
