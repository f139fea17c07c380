package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"smartstudy/internal/model"
)

type QuizAttemptRepository struct {
	db *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{db: db}
}

func (r *QuizAttemptRepository) Create(attempt *model.QuizAttempt) error {
	if err := r.db.Create(attempt).Error; err != nil {
		return fmt.Errorf("create quiz attempt failed: %w", err)
	}
	return nil
}

func (r *QuizAttemptRepository) ListByUserID(userID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("list quiz attempts failed: %w", err)
	}
	return attempts, nil
}

func (r *QuizAttemptRepository) UpdateScore(userID, attemptID uint, score int) error {
	result := r.db.Model(&model.QuizAttempt{}).
		Where("id = ? AND user_id = ?", attemptID, userID).
		Update("score", score)
	if result.Error != nil {
		return fmt.Errorf("update quiz score failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("quiz attempt not found")
	}
	return nil
}
