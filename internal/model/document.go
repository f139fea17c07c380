package model

import "time"

// Document records that a user uploaded a study file. The file bytes live in the
// upload store and the chunk vectors in the vector store; this row is only the
// ownership record.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_user_filename,unique" json:"user_id"`
	Filename  string    `gorm:"size:256;not null;index:idx_user_filename,unique" json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}
