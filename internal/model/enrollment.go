package model

import (
	"time"
)

type EnrollmentStatus string

const (
	Enrolled         EnrollmentStatus = "enrolled"
	EnrollInProgress EnrollmentStatus = "in_progress"
	EnrollCompleted  EnrollmentStatus = "completed"
	EnrollDropped    EnrollmentStatus = "dropped"
)

// Enrollment 的 ProgressPercent 是派生字段，只能由进度级联重算，
// 其它代码路径一律不得直接写。
type Enrollment struct {
	BaseModel
	UserID          uint             `gorm:"uniqueIndex:idx_user_course;not null" json:"userId"`
	CourseID        uint             `gorm:"uniqueIndex:idx_user_course;not null" json:"courseId"`
	Status          EnrollmentStatus `gorm:"type:enum('enrolled','in_progress','completed','dropped');default:'enrolled'" json:"status"`
	ProgressPercent int              `gorm:"default:0" json:"progressPercent"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
