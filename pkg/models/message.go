package models

import "time"

// Message is a contact-form submission.
type Message struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" bson:"name" json:"name"`
	Email     string    `gorm:"type:varchar(100);not null" bson:"email" json:"email"`
	Body      string    `gorm:"column:message;type:text;not null" bson:"message" json:"message"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	Pinned    bool      `gorm:"default:false" bson:"pinned" json:"pinned"`
}

func (Message) TableName() string {
	return "messages"
}
