package model

import (
	"time"
)

// QuizAttempt 只增不改的答题台账。唯一索引 (quiz_id, user_id, attempt_number)
// 是并发提交下编号不重复、不越上限的存储层兜底。
type QuizAttempt struct {
	ID            uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	QuizID        uint              `gorm:"uniqueIndex:idx_quiz_user_attempt;not null" json:"quizId"`
	UserID        uint              `gorm:"uniqueIndex:idx_quiz_user_attempt;not null" json:"userId"`
	EnrollmentID  uint              `gorm:"index;not null" json:"enrollmentId"`
	AttemptNumber int               `gorm:"uniqueIndex:idx_quiz_user_attempt;not null" json:"attemptNumber"` // 从 1 起、无空洞
	Answers       map[string]string `gorm:"serializer:json;type:json" json:"answers"`
	Score         int               `gorm:"not null" json:"score"` // 0-100 百分比
	Passed        bool              `gorm:"not null" json:"passed"`
	TimeSpent     int               `gorm:"default:0" json:"timeSpent"` // 秒
	CreatedAt     time.Time         `json:"createdAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
