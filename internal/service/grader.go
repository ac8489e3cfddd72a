package service

import (
	"math"
	"strings"

	"lms_backend/internal/model"
)

// GradeResult 单题判分结果
type GradeResult struct {
	IsCorrect    bool
	EarnedPoints int
}

// GradeQuestion 纯函数判分。按题型分治：
// multiple_choice 比对标记为正确的选项 id，
// true_false 大小写敏感精确比对，
// short_answer 去首尾空白并小写后比对。
// 缺答、未知选项 id、未知题型一律判错，绝不报错。
func GradeQuestion(q *model.QuizQuestion, answer string) GradeResult {
	if strings.TrimSpace(answer) == "" {
		return GradeResult{}
	}

	correct := false
	switch q.Type {
	case model.MultipleChoice:
		for i := range q.Options {
			if q.Options[i].IsCorrect {
				correct = answer == q.Options[i].ID
				break
			}
		}
	case model.TrueFalse:
		correct = answer == q.CorrectAnswer
	case model.ShortAnswer:
		correct = normalizeShortAnswer(answer) == normalizeShortAnswer(q.CorrectAnswer)
	}

	if !correct {
		return GradeResult{}
	}
	return GradeResult{IsCorrect: true, EarnedPoints: q.Points}
}

func normalizeShortAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RoundPercent 四舍五入（.5 进位）的百分比，total 为 0 时由调用方先行拦截
func RoundPercent(earned, total int) int {
	return int(math.Floor(float64(earned)*100/float64(total) + 0.5))
}
