package model

import (
	"time"
)

type LessonProgressStatus string

const (
	LessonNotStarted LessonProgressStatus = "not_started"
	LessonInProgress LessonProgressStatus = "in_progress"
	LessonCompleted  LessonProgressStatus = "completed"
)

// LessonProgress 首次交互时懒创建；置为 completed 的 upsert 必须幂等，
// 重复完成不重置 CompletedAt。
type LessonProgress struct {
	BaseModel
	EnrollmentID uint                 `gorm:"uniqueIndex:idx_enrollment_lesson;not null" json:"enrollmentId"`
	LessonID     uint                 `gorm:"uniqueIndex:idx_enrollment_lesson;not null" json:"lessonId"`
	Status       LessonProgressStatus `gorm:"type:enum('not_started','in_progress','completed');default:'not_started'" json:"status"`
	CompletedAt  *time.Time           `json:"completedAt,omitempty"`
	TimeSpent    int                  `gorm:"default:0" json:"timeSpent"` // 秒，累计
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
