package models

import (
	"time"
)

// AlbumDelivery records one packaged album handed to a recipient: where the
// archive lives, the presigned link that was issued, and when both expire.
// It is only written after the archive upload has been confirmed.
type AlbumDelivery struct {
	ID           string     `json:"album_id" gorm:"primaryKey;column:album_id"`
	ClientName   string     `json:"client_name" gorm:"not null;index"`
	AlbumName    string     `json:"album_name" gorm:"not null"`
	ZipFileKey   string     `json:"zip_file_key" gorm:"not null"`
	Email        string     `json:"email" gorm:"not null"`
	DownloadLink string     `json:"download_link"`
	NotifyError  string     `json:"notify_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" gorm:"index"`
}

type ZipAlbumRequest struct {
	ClientName string `json:"client_name"`
	AlbumName  string `json:"album_name"`
	Email      string `json:"email"`
}

type ZipAlbumResponse struct {
	Message      string `json:"message"`
	AlbumID      string `json:"album_id"`
	DownloadLink string `json:"download_link"`
}
