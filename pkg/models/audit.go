package models

import "time"

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        string                 `bson:"_id,omitempty" json:"id"`
	Service   string                 `bson:"service" json:"service"`
	Action    string                 `bson:"action" json:"action"`
	EntityID  string                 `bson:"entity_id" json:"entity_id"`
	Data      map[string]interface{} `bson:"data" json:"data"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}
