package service

import (
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
)

// CompletionNotifier 完成事件的外部协作方（站内通知、证书签发等）。
// 引擎侧 fire-and-forget：通知失败不回滚判分事务。
type CompletionNotifier interface {
	LessonCompleted(userID, courseID, lessonID uint)
	CourseCompleted(userID, courseID uint)
}

// LogNotifier 默认实现，仅记录日志
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) LessonCompleted(userID, courseID, lessonID uint) {
	logger.Log.Info("lesson completed",
		zap.Uint("userId", userID),
		zap.Uint("courseId", courseID),
		zap.Uint("lessonId", lessonID),
	)
}

func (n *LogNotifier) CourseCompleted(userID, courseID uint) {
	logger.Log.Info("course completed",
		zap.Uint("userId", userID),
		zap.Uint("courseId", courseID),
	)
}
