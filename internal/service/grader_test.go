package service

import (
	"testing"

	"lms_backend/internal/model"
)

func mcQuestion(points int) *model.QuizQuestion {
	return &model.QuizQuestion{
		UUIDBase: model.UUIDBase{ID: "q-mc"},
		Type:     model.MultipleChoice,
		Text:     "如何在 Go 中声明一个整型变量?",
		Points:   points,
		Options: []model.QuestionOption{
			{UUIDBase: model.UUIDBase{ID: "a"}, Text: "int x;", IsCorrect: true},
			{UUIDBase: model.UUIDBase{ID: "b"}, Text: "x int;"},
			{UUIDBase: model.UUIDBase{ID: "c"}, Text: "integer x;"},
		},
	}
}

func TestGradeQuestion_MultipleChoice(t *testing.T) {
	q := mcQuestion(5)

	tests := []struct {
		name        string
		answer      string
		wantCorrect bool
		wantPoints  int
	}{
		{"correct option id", "a", true, 5},
		{"wrong option id", "b", false, 0},
		{"unknown option id", "zzz", false, 0},
		{"missing answer", "", false, 0},
		{"whitespace only", "   ", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GradeQuestion(q, tt.answer)
			if got.IsCorrect != tt.wantCorrect {
				t.Errorf("IsCorrect = %v, want %v", got.IsCorrect, tt.wantCorrect)
			}
			if got.EarnedPoints != tt.wantPoints {
				t.Errorf("EarnedPoints = %d, want %d", got.EarnedPoints, tt.wantPoints)
			}
		})
	}
}

func TestGradeQuestion_TrueFalse(t *testing.T) {
	q := &model.QuizQuestion{
		UUIDBase:      model.UUIDBase{ID: "q-tf"},
		Type:          model.TrueFalse,
		Points:        5,
		CorrectAnswer: "true",
	}

	tests := []struct {
		name        string
		answer      string
		wantCorrect bool
	}{
		{"exact match", "true", true},
		{"wrong value", "false", false},
		{"case sensitive", "True", false},
		{"missing answer", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GradeQuestion(q, tt.answer)
			if got.IsCorrect != tt.wantCorrect {
				t.Errorf("IsCorrect = %v, want %v", got.IsCorrect, tt.wantCorrect)
			}
		})
	}
}

func TestGradeQuestion_ShortAnswer(t *testing.T) {
	q := &model.QuizQuestion{
		UUIDBase:      model.UUIDBase{ID: "q-sa"},
		Type:          model.ShortAnswer,
		Points:        3,
		CorrectAnswer: "Paris",
	}

	tests := []struct {
		name        string
		answer      string
		wantCorrect bool
	}{
		{"exact", "Paris", true},
		{"lowercase", "paris", true},
		{"uppercase", "PARIS", true},
		{"padded", " Paris ", true},
		{"typo", "Pariss", false},
		{"missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GradeQuestion(q, tt.answer)
			if got.IsCorrect != tt.wantCorrect {
				t.Errorf("GradeQuestion(%q).IsCorrect = %v, want %v", tt.answer, got.IsCorrect, tt.wantCorrect)
			}
		})
	}
}

func TestGradeQuestion_UnknownType(t *testing.T) {
	q := &model.QuizQuestion{
		UUIDBase:      model.UUIDBase{ID: "q-x"},
		Type:          model.QuestionType("essay"),
		Points:        10,
		CorrectAnswer: "anything",
	}
	got := GradeQuestion(q, "anything")
	if got.IsCorrect || got.EarnedPoints != 0 {
		t.Errorf("unknown type must grade incorrect, got %+v", got)
	}
}

func TestRoundPercent(t *testing.T) {
	tests := []struct {
		earned, total, want int
	}{
		{0, 10, 0},
		{10, 10, 100},
		{5, 10, 50},
		{1, 4, 25},
		{2, 3, 67},  // 66.67 -> 67
		{1, 3, 33},  // 33.33 -> 33
		{1, 8, 13},  // 12.5 进位
		{3, 8, 38},  // 37.5 进位
		{1, 200, 1}, // 0.5 进位
	}

	for _, tt := range tests {
		if got := RoundPercent(tt.earned, tt.total); got != tt.want {
			t.Errorf("RoundPercent(%d, %d) = %d, want %d", tt.earned, tt.total, got, tt.want)
		}
	}
}
