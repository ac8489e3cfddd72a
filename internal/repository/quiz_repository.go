package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) preloadQuestions(db *gorm.DB) *gorm.DB {
	return db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("quiz_questions.`order`")
	}).Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("question_options.created_at")
	})
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.preloadQuestions(r.DB).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) FindByLessonID(lessonID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.preloadQuestions(r.DB).Where("lesson_id = ?", lessonID).First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}
