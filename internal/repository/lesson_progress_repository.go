package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type LessonProgressRepository struct {
	DB *gorm.DB
}

func NewLessonProgressRepository(db *gorm.DB) *LessonProgressRepository {
	return &LessonProgressRepository{DB: db}
}

func (r *LessonProgressRepository) FindByEnrollmentAndLesson(db *gorm.DB, enrollmentID, lessonID uint) (*model.LessonProgress, error) {
	var p model.LessonProgress
	err := db.Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountCompleted 必须在执行 upsert 的同一事务里调用，
// 进度百分比才不会读到陈旧计数。
func (r *LessonProgressRepository) CountCompleted(db *gorm.DB, enrollmentID uint) (int64, error) {
	var count int64
	err := db.Model(&model.LessonProgress{}).
		Where("enrollment_id = ? AND status = ?", enrollmentID, model.LessonCompleted).
		Count(&count).Error
	return count, err
}

func (r *LessonProgressRepository) ListByEnrollment(enrollmentID uint) ([]model.LessonProgress, error) {
	var list []model.LessonProgress
	err := r.DB.Where("enrollment_id = ?", enrollmentID).Order("lesson_id").Find(&list).Error
	return list, err
}
