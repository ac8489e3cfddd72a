package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

// QuizAttemptRepository 只追加的答题台账。刻意不提供更新和删除，
// 每条 attempt 一经写入即为审计记录。
type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) CountByQuizAndUser(db *gorm.DB, quizID, userID uint) (int64, error) {
	var count int64
	err := db.Model(&model.QuizAttempt{}).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Count(&count).Error
	return count, err
}

func (r *QuizAttemptRepository) ListByQuizAndUser(quizID, userID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Order("attempt_number").
		Find(&attempts).Error
	return attempts, err
}

func (r *QuizAttemptRepository) ListByQuiz(quizID uint, page, limit int) ([]model.QuizAttempt, int64, error) {
	var attempts []model.QuizAttempt
	var total int64

	q := r.DB.Model(&model.QuizAttempt{}).Where("quiz_id = ?", quizID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&attempts).Error
	return attempts, total, err
}

func (r *QuizAttemptRepository) BestScore(quizID, userID uint) (int, error) {
	var best int
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Select("COALESCE(MAX(score), 0)").
		Scan(&best).Error
	return best, err
}
