package service

import (
	"errors"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	ProgressRepo   *repository.LessonProgressRepository
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	progressRepo *repository.LessonProgressRepository,
) *CourseService {
	return &CourseService{
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		ProgressRepo:   progressRepo,
	}
}

func (s *CourseService) ListCourses(page, limit int) ([]model.Course, int64, error) {
	return s.CourseRepo.ListPublished(page, limit)
}

func (s *CourseService) GetCourse(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// Enroll 幂等报名：已有报名直接返回，dropped 的报名重新激活
func (s *CourseService) Enroll(userID, courseID uint) (*model.Enrollment, error) {
	if _, err := s.GetCourse(courseID); err != nil {
		return nil, err
	}

	existing, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	if err == nil {
		if existing.Status == model.EnrollDropped {
			existing.Status = model.Enrolled
			if err := s.EnrollmentRepo.Save(existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := &model.Enrollment{
		UserID:   userID,
		CourseID: courseID,
		Status:   model.Enrolled,
	}
	if err := s.EnrollmentRepo.Create(enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

type CourseProgressView struct {
	Enrollment *model.Enrollment      `json:"enrollment"`
	Lessons    []model.LessonProgress `json:"lessons"`
}

func (s *CourseService) GetProgress(userID, courseID uint) (*CourseProgressView, error) {
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotEnrolled
		}
		return nil, err
	}

	lessons, err := s.ProgressRepo.ListByEnrollment(enrollment.ID)
	if err != nil {
		return nil, err
	}

	return &CourseProgressView{
		Enrollment: enrollment,
		Lessons:    lessons,
	}, nil
}
