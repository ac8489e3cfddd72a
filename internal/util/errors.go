package util

import "errors"

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrCourseNotFound      = errors.New("course not found")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrNotEnrolled         = errors.New("not enrolled in this course")
	ErrAttemptsExhausted   = errors.New("no attempts remaining for this quiz")
	ErrQuizNoQuestions     = errors.New("quiz has no questions configured")
	ErrConcurrencyConflict = errors.New("concurrent submission conflict")
)
