package service

import (
	"errors"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressionService 是 LessonProgress.Status 与 Enrollment 进度字段的唯一写入方。
// 其它代码路径（包括人工补录完成）必须经由这里级联，不得绕过。
type ProgressionService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	ProgressRepo   *repository.LessonProgressRepository
	CourseRepo     *repository.CourseRepository
	Notifier       CompletionNotifier
	DB             *gorm.DB
}

func NewProgressionService(
	enrollmentRepo *repository.EnrollmentRepository,
	progressRepo *repository.LessonProgressRepository,
	courseRepo *repository.CourseRepository,
	notifier CompletionNotifier,
	db *gorm.DB,
) *ProgressionService {
	return &ProgressionService{
		EnrollmentRepo: enrollmentRepo,
		ProgressRepo:   progressRepo,
		CourseRepo:     courseRepo,
		Notifier:       notifier,
		DB:             db,
	}
}

type CascadeResult struct {
	LessonProgress      *model.LessonProgress `json:"lessonProgress"`
	Enrollment          *model.Enrollment     `json:"enrollment"`
	LessonJustCompleted bool                  `json:"-"`
	CourseJustCompleted bool                  `json:"-"`
	Warning             string                `json:"warning,omitempty"`
}

// completeLessonProgress 纯函数：把课时进度置为 completed。
// 幂等：已完成的进度不改 Status 也不重置 CompletedAt。
// 返回本次是否发生首次完成跃迁。
func completeLessonProgress(p *model.LessonProgress, now time.Time) bool {
	if p.Status == model.LessonCompleted {
		return false
	}
	p.Status = model.LessonCompleted
	p.CompletedAt = &now
	return true
}

// nextEnrollmentState 纯函数：给定当前状态与重算后的百分比，
// 返回新状态与本次是否发生完成跃迁。completed 为终态，永不回退。
func nextEnrollmentState(status model.EnrollmentStatus, percent int) (model.EnrollmentStatus, bool) {
	if status == model.EnrollCompleted {
		return model.EnrollCompleted, false
	}
	if percent >= 100 {
		return model.EnrollCompleted, true
	}
	// 级联不负责 enrolled -> in_progress 的跃迁，保持原状
	return status, false
}

// CascadeTx 在调用方的事务内执行完整级联：
// 1. 幂等 upsert 课时进度为 completed（首次跃迁才写 CompletedAt）
// 2. upsert 之后在同一事务内重数已完成课时
// 3. 重算报名进度百分比
// 4. 百分比到 100 时终态跃迁为 completed
// 报名行加行锁，两个课时并发完成时串行化重算，杜绝陈旧计数互相覆盖。
func (s *ProgressionService) CascadeTx(tx *gorm.DB, enrollmentID, lessonID uint, timeSpent int) (*CascadeResult, error) {
	var enrollment model.Enrollment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&enrollment, enrollmentID).Error; err != nil {
		return nil, err
	}

	result := &CascadeResult{}

	// 1. 幂等 upsert 课时进度
	progress, err := s.ProgressRepo.FindByEnrollmentAndLesson(tx, enrollmentID, lessonID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		progress = &model.LessonProgress{
			EnrollmentID: enrollmentID,
			LessonID:     lessonID,
			TimeSpent:    timeSpent,
		}
		result.LessonJustCompleted = completeLessonProgress(progress, time.Now())
		if err := tx.Create(progress).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		progress.TimeSpent += timeSpent
		// 已完成则不动 Status / CompletedAt，重复标记是 no-op
		result.LessonJustCompleted = completeLessonProgress(progress, time.Now())
		if err := tx.Save(progress).Error; err != nil {
			return nil, err
		}
	}
	result.LessonProgress = progress

	// 2. 总课时为 0 属于课程配置问题：课时完成照常落库，
	// 报名进度保持不动，降级为警告而非失败。
	totalLessons, err := s.CourseRepo.CountLessons(tx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}
	if totalLessons == 0 {
		logger.Log.Warn("course has no lessons, skipping progress recompute",
			zap.Uint("courseId", enrollment.CourseID),
			zap.Uint("enrollmentId", enrollment.ID),
		)
		result.Enrollment = &enrollment
		result.Warning = "course has no lessons, enrollment progress not recomputed"
		return result, nil
	}

	completedLessons, err := s.ProgressRepo.CountCompleted(tx, enrollmentID)
	if err != nil {
		return nil, err
	}

	// 3+4. 重算百分比并判定终态跃迁
	enrollment.ProgressPercent = RoundPercent(int(completedLessons), int(totalLessons))
	newStatus, justCompleted := nextEnrollmentState(enrollment.Status, enrollment.ProgressPercent)
	if justCompleted {
		now := time.Now()
		enrollment.CompletedAt = &now
	}
	enrollment.Status = newStatus
	result.CourseJustCompleted = justCompleted

	if err := tx.Save(&enrollment).Error; err != nil {
		return nil, err
	}
	result.Enrollment = &enrollment
	return result, nil
}

// MarkLessonComplete 非测验课时的人工完成入口，走同一条级联
func (s *ProgressionService) MarkLessonComplete(userID, lessonID uint, timeSpent int) (*CascadeResult, error) {
	lesson, err := s.CourseRepo.FindLessonByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, lesson.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotEnrolled
		}
		return nil, err
	}
	if enrollment.Status == model.EnrollDropped {
		return nil, util.ErrNotEnrolled
	}

	var result *CascadeResult
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.CascadeTx(tx, enrollment.ID, lessonID, timeSpent)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.NotifyAfterCascade(userID, lesson.CourseID, lessonID, result)
	return result, nil
}

// NotifyAfterCascade 事务提交后上报完成事件与指标，失败不影响已提交的数据
func (s *ProgressionService) NotifyAfterCascade(userID, courseID, lessonID uint, result *CascadeResult) {
	if result.LessonJustCompleted {
		monitoring.CompletionCounter.WithLabelValues("lesson").Inc()
		go s.Notifier.LessonCompleted(userID, courseID, lessonID)
	}
	if result.CourseJustCompleted {
		monitoring.CompletionCounter.WithLabelValues("enrollment").Inc()
		go s.Notifier.CourseCompleted(userID, courseID)
	}
}
