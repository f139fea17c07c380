package model

import "time"

// QuizAttempt logs that a quiz was generated for a user. Score starts at 0 and is
// updated when the user submits answers.
type QuizAttempt struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Score          int       `gorm:"not null" json:"score"`
	TotalQuestions int       `gorm:"not null" json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
}
