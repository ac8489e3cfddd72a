package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const quizViewCacheTTL = 10 * time.Minute

type QuizService struct {
	QuizRepo       *repository.QuizRepository
	AttemptRepo    *repository.QuizAttemptRepository
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	Progression    *ProgressionService
	Redis          *redis.Client
	DB             *gorm.DB
}

func NewQuizService(
	quizRepo *repository.QuizRepository,
	attemptRepo *repository.QuizAttemptRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	progression *ProgressionService,
	rdb *redis.Client,
	db *gorm.DB,
) *QuizService {
	return &QuizService{
		QuizRepo:       quizRepo,
		AttemptRepo:    attemptRepo,
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		Progression:    progression,
		Redis:          rdb,
		DB:             db,
	}
}

// QuestionResult 判分后对学生可见的单题结果，
// 标准答案与解析只在这里出现，提交前的读模型一律不带。
type QuestionResult struct {
	QuestionID      string `json:"questionId"`
	SubmittedAnswer string `json:"submittedAnswer,omitempty"`
	IsCorrect       bool   `json:"isCorrect"`
	EarnedPoints    int    `json:"earnedPoints"`
	Points          int    `json:"points"`
	CorrectAnswer   string `json:"correctAnswer"`
	Explanation     string `json:"explanation,omitempty"`
}

type Evaluation struct {
	ScorePercent int
	Passed       bool
	EarnedPoints int
	TotalPoints  int
	Results      []QuestionResult
}

// EvaluateQuiz 按题目既定顺序逐题判分并汇总。
// 零题或零总分的测验属于配置错误，直接报给调用方，绝不默认满分。
// answers 中未知题目 id 的条目被静默忽略（遍历以测验题目为准）。
func EvaluateQuiz(quiz *model.Quiz, answers map[string]string) (*Evaluation, error) {
	totalPoints := 0
	for i := range quiz.Questions {
		totalPoints += quiz.Questions[i].Points
	}
	if len(quiz.Questions) == 0 || totalPoints <= 0 {
		return nil, util.ErrQuizNoQuestions
	}

	eval := &Evaluation{
		TotalPoints: totalPoints,
		Results:     make([]QuestionResult, 0, len(quiz.Questions)),
	}

	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		answer := answers[q.ID]
		graded := GradeQuestion(q, answer)
		eval.EarnedPoints += graded.EarnedPoints

		eval.Results = append(eval.Results, QuestionResult{
			QuestionID:      q.ID,
			SubmittedAnswer: answer,
			IsCorrect:       graded.IsCorrect,
			EarnedPoints:    graded.EarnedPoints,
			Points:          q.Points,
			CorrectAnswer:   correctAnswerOf(q),
			Explanation:     q.Explanation,
		})
	}

	eval.ScorePercent = RoundPercent(eval.EarnedPoints, totalPoints)
	eval.Passed = eval.ScorePercent >= quiz.PassingScore
	return eval, nil
}

// correctAnswerOf 多选题的标准答案是正确选项的 id，其余题型直接取 CorrectAnswer
func correctAnswerOf(q *model.QuizQuestion) string {
	if q.Type == model.MultipleChoice {
		for i := range q.Options {
			if q.Options[i].IsCorrect {
				return q.Options[i].ID
			}
		}
		return ""
	}
	return q.CorrectAnswer
}

func attemptsRemaining(limit *int, used int) *int {
	if limit == nil {
		return nil
	}
	r := *limit - used
	if r < 0 {
		r = 0
	}
	return &r
}

// checkEligibility 资格闸门的纯判定：报名有效且次数未用尽时，
// 返回本次应占用的 attempt 编号（used+1，从 1 起、无空洞）。
// 调用方必须传事务内的计数，编号分配才不会在并发下重复。
func checkEligibility(status model.EnrollmentStatus, limit *int, used int64) (int, error) {
	if status == model.EnrollDropped {
		return 0, util.ErrNotEnrolled
	}
	if limit != nil && used >= int64(*limit) {
		return 0, util.ErrAttemptsExhausted
	}
	return int(used) + 1, nil
}

type SubmissionRequest struct {
	Answers          map[string]string `json:"answers" binding:"required"`
	TimeSpentSeconds int               `json:"timeSpentSeconds"`
}

type SubmissionResult struct {
	AttemptID          uint              `json:"attemptId"`
	AttemptNumber      int               `json:"attemptNumber"`
	Score              int               `json:"score"`
	Passed             bool              `json:"passed"`
	EarnedPoints       int               `json:"earnedPoints"`
	TotalPoints        int               `json:"totalPoints"`
	PassingScore       int               `json:"passingScore"`
	AttemptsRemaining  *int              `json:"attemptsRemaining"` // null 表示不限次数
	PerQuestionResults []QuestionResult  `json:"perQuestionResults"`
	Enrollment         *model.Enrollment `json:"enrollment,omitempty"`
	Warning            string            `json:"warning,omitempty"`
}

// Submit 提交一次测验：资格校验、判分、落台账，通过则级联进度。
// 资格复核、编号分配、判分、attempt 插入与级联在同一事务内执行，
// 判分一定在资格闸门之后，未报名或次数用尽的提交不会触碰判分路径。
// 撞上唯一索引（并发提交）时整个原子单元内部重试一次，再失败即返回
// ErrConcurrencyConflict，由调用方提示重试。
func (s *QuizService) Submit(userID, quizID uint, req SubmissionRequest) (*SubmissionResult, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	lesson, err := s.CourseRepo.FindLessonByID(quiz.LessonID)
	if err != nil {
		return nil, err
	}

	var result *SubmissionResult
	var cascade *CascadeResult
	for attempt := 0; attempt < 2; attempt++ {
		result, cascade, err = s.submitOnce(userID, quiz, lesson, req)
		if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Log.Warn("attempt insert hit unique index, retrying submission unit",
				zap.Uint("quizId", quizID),
				zap.Uint("userId", userID),
			)
			continue
		}
		break
	}
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			monitoring.SubmissionCounter.WithLabelValues("conflict").Inc()
			return nil, util.ErrConcurrencyConflict
		case errors.Is(err, util.ErrNotEnrolled),
			errors.Is(err, util.ErrAttemptsExhausted),
			errors.Is(err, util.ErrQuizNoQuestions):
			monitoring.SubmissionCounter.WithLabelValues("rejected").Inc()
			return nil, err
		default:
			return nil, err
		}
	}

	if result.Passed {
		monitoring.SubmissionCounter.WithLabelValues("passed").Inc()
	} else {
		monitoring.SubmissionCounter.WithLabelValues("failed").Inc()
	}

	// 事务已提交，完成事件对外只管发出
	if cascade != nil {
		s.Progression.NotifyAfterCascade(userID, lesson.CourseID, lesson.ID, cascade)
		result.Enrollment = cascade.Enrollment
		result.Warning = cascade.Warning
	}

	return result, nil
}

// submitOnce 资格复核 + 判分 + 台账插入 +（通过时）级联，整体一个事务。
// 报名行的行锁是同一 (quiz, learner) 并发提交的串行化点，
// (quiz_id, user_id, attempt_number) 唯一索引兜底锁不到的场景。
func (s *QuizService) submitOnce(
	userID uint,
	quiz *model.Quiz,
	lesson *model.Lesson,
	req SubmissionRequest,
) (*SubmissionResult, *CascadeResult, error) {
	var attemptRow *model.QuizAttempt
	var cascade *CascadeResult
	var evaluation *Evaluation
	var remaining *int

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var enrollment model.Enrollment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND course_id = ?", userID, lesson.CourseID).
			First(&enrollment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotEnrolled
		}
		if err != nil {
			return err
		}

		// 次数上限复核与编号分配必须读事务内计数，不能信任事务外的快照
		used, err := s.AttemptRepo.CountByQuizAndUser(tx, quiz.ID, userID)
		if err != nil {
			return err
		}
		attemptNumber, err := checkEligibility(enrollment.Status, quiz.AttemptsAllowed, used)
		if err != nil {
			return err
		}

		// 判分在资格闸门之后执行，不合格的提交看不到测验配置问题
		evaluation, err = EvaluateQuiz(quiz, req.Answers)
		if err != nil {
			return err
		}

		attemptRow = &model.QuizAttempt{
			QuizID:        quiz.ID,
			UserID:        userID,
			EnrollmentID:  enrollment.ID,
			AttemptNumber: attemptNumber,
			Answers:       req.Answers,
			Score:         evaluation.ScorePercent,
			Passed:        evaluation.Passed,
			TimeSpent:     req.TimeSpentSeconds,
		}
		if err := tx.Create(attemptRow).Error; err != nil {
			return err
		}

		remaining = attemptsRemaining(quiz.AttemptsAllowed, attemptNumber)

		if evaluation.Passed {
			cascade, err = s.Progression.CascadeTx(tx, enrollment.ID, lesson.ID, req.TimeSpentSeconds)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &SubmissionResult{
		AttemptID:          attemptRow.ID,
		AttemptNumber:      attemptRow.AttemptNumber,
		Score:              evaluation.ScorePercent,
		Passed:             evaluation.Passed,
		EarnedPoints:       evaluation.EarnedPoints,
		TotalPoints:        evaluation.TotalPoints,
		PassingScore:       quiz.PassingScore,
		AttemptsRemaining:  remaining,
		PerQuestionResults: evaluation.Results,
	}, cascade, nil
}

// LearnerOption / LearnerQuestion / LearnerQuizView 提交前的学生读模型，
// 不含 isCorrect 标记、标准答案和解析，防止答案泄露。
type LearnerOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type LearnerQuestion struct {
	ID      string             `json:"id"`
	Type    model.QuestionType `json:"type"`
	Text    string             `json:"text"`
	Points  int                `json:"points"`
	Order   int                `json:"order"`
	Options []LearnerOption    `json:"options,omitempty"`
}

type LearnerQuizView struct {
	QuizID            uint              `json:"quizId"`
	LessonID          uint              `json:"lessonId"`
	Title             string            `json:"title"`
	PassingScore      int               `json:"passingScore"`
	AttemptsAllowed   *int              `json:"attemptsAllowed"`
	Questions         []LearnerQuestion `json:"questions"`
	AttemptsUsed      int               `json:"attemptsUsed"`
	AttemptsRemaining *int              `json:"attemptsRemaining"`
	BestScore         int               `json:"bestScore"`
}

// SanitizeQuiz 纯函数，按学生视角裁剪测验
func SanitizeQuiz(quiz *model.Quiz) *LearnerQuizView {
	view := &LearnerQuizView{
		QuizID:          quiz.ID,
		LessonID:        quiz.LessonID,
		Title:           quiz.Title,
		PassingScore:    quiz.PassingScore,
		AttemptsAllowed: quiz.AttemptsAllowed,
		Questions:       make([]LearnerQuestion, 0, len(quiz.Questions)),
	}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		lq := LearnerQuestion{
			ID:     q.ID,
			Type:   q.Type,
			Text:   q.Text,
			Points: q.Points,
			Order:  q.Order,
		}
		for j := range q.Options {
			lq.Options = append(lq.Options, LearnerOption{
				ID:   q.Options[j].ID,
				Text: q.Options[j].Text,
			})
		}
		view.Questions = append(view.Questions, lq)
	}
	return view
}

// GetQuizForLearner 课时测验的学生视图。裁剪后的测验本体缓存进 redis
// （有答题记录后测验不可变，缓存是安全的），次数与最好成绩每次现算。
func (s *QuizService) GetQuizForLearner(userID, lessonID uint) (*LearnerQuizView, error) {
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

	view, err := s.cachedQuizView(lessonID)
	if err != nil {
		return nil, err
	}

	used, err := s.AttemptRepo.CountByQuizAndUser(s.DB, view.QuizID, userID)
	if err != nil {
		return nil, err
	}
	best, err := s.AttemptRepo.BestScore(view.QuizID, userID)
	if err != nil {
		return nil, err
	}

	view.AttemptsUsed = int(used)
	view.AttemptsRemaining = attemptsRemaining(view.AttemptsAllowed, int(used))
	view.BestScore = best
	return view, nil
}

func (s *QuizService) cachedQuizView(lessonID uint) (*LearnerQuizView, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("quiz:learner_view:%d", lessonID)

	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var view LearnerQuizView
			if err := json.Unmarshal([]byte(cached), &view); err == nil {
				return &view, nil
			}
		}
	}

	quiz, err := s.QuizRepo.FindByLessonID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	view := SanitizeQuiz(quiz)
	if s.Redis != nil {
		if data, err := json.Marshal(view); err == nil {
			s.Redis.Set(ctx, cacheKey, data, quizViewCacheTTL)
		}
	}
	return view, nil
}

// ListMyAttempts 学生本人的答题历史（判分后数据，可含成绩）
func (s *QuizService) ListMyAttempts(userID, quizID uint) ([]model.QuizAttempt, error) {
	if _, err := s.QuizRepo.FindByID(quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return s.AttemptRepo.ListByQuizAndUser(quizID, userID)
}

// ListQuizAttempts 教师侧的台账只读视图
func (s *QuizService) ListQuizAttempts(quizID uint, page, limit int) ([]model.QuizAttempt, int64, error) {
	return s.AttemptRepo.ListByQuiz(quizID, page, limit)
}
