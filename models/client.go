package models

import (
	"time"
)

// Client is a photo client record. Clients are immutable once created;
// there is no update or delete path.
type Client struct {
	ID        string    `json:"client_id" gorm:"primaryKey;column:client_id"`
	Name      string    `json:"client_name" gorm:"column:client_name;not null"`
	Email     string    `json:"email" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

type CreateClientRequest struct {
	Name  string `json:"client_name"`
	Email string `json:"email"`
}

type CreateClientResponse struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}
