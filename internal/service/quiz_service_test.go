package service

import (
	"errors"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/util"
)

func testQuiz() *model.Quiz {
	mc := mcQuestion(5)
	mc.QuizID = 1
	mc.Order = 1
	return &model.Quiz{
		BaseModel:    model.BaseModel{ID: 1},
		LessonID:     10,
		Title:        "随堂测验",
		PassingScore: 70,
		Questions: []model.QuizQuestion{
			*mc,
			{
				UUIDBase:      model.UUIDBase{ID: "q-tf"},
				QuizID:        1,
				Type:          model.TrueFalse,
				Points:        5,
				Order:         2,
				CorrectAnswer: "true",
				Explanation:   "sizeof(char) == 1",
			},
		},
	}
}

func TestEvaluateQuiz_AllCorrect(t *testing.T) {
	quiz := testQuiz()
	eval, err := EvaluateQuiz(quiz, map[string]string{"q-mc": "a", "q-tf": "true"})
	if err != nil {
		t.Fatalf("EvaluateQuiz: %v", err)
	}

	if eval.ScorePercent != 100 {
		t.Errorf("ScorePercent = %d, want 100", eval.ScorePercent)
	}
	if !eval.Passed {
		t.Error("Passed = false, want true")
	}
	if eval.EarnedPoints != 10 || eval.TotalPoints != 10 {
		t.Errorf("points = %d/%d, want 10/10", eval.EarnedPoints, eval.TotalPoints)
	}
	if len(eval.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(eval.Results))
	}
	// 判分后的结果必须带标准答案与解析
	if eval.Results[0].CorrectAnswer != "a" {
		t.Errorf("MC CorrectAnswer = %q, want %q", eval.Results[0].CorrectAnswer, "a")
	}
	if eval.Results[1].Explanation == "" {
		t.Error("TF Explanation missing in post-submission result")
	}
}

func TestEvaluateQuiz_PartialAndThreshold(t *testing.T) {
	quiz := testQuiz()

	// 一半分 50% < 70%，不通过
	eval, err := EvaluateQuiz(quiz, map[string]string{"q-mc": "a"})
	if err != nil {
		t.Fatalf("EvaluateQuiz: %v", err)
	}
	if eval.ScorePercent != 50 || eval.Passed {
		t.Errorf("got score=%d passed=%v, want 50 / false", eval.ScorePercent, eval.Passed)
	}

	// 分数恰好等于及格线时算通过
	quiz.PassingScore = 50
	eval, err = EvaluateQuiz(quiz, map[string]string{"q-mc": "a"})
	if err != nil {
		t.Fatalf("EvaluateQuiz: %v", err)
	}
	if !eval.Passed {
		t.Error("score equal to passing score must pass")
	}
}

func TestEvaluateQuiz_UnknownQuestionIDsIgnored(t *testing.T) {
	quiz := testQuiz()
	eval, err := EvaluateQuiz(quiz, map[string]string{
		"q-mc":       "a",
		"q-tf":       "true",
		"q-stranger": "whatever",
	})
	if err != nil {
		t.Fatalf("EvaluateQuiz: %v", err)
	}
	if eval.ScorePercent != 100 || len(eval.Results) != 2 {
		t.Errorf("unknown ids must be ignored, got score=%d results=%d", eval.ScorePercent, len(eval.Results))
	}
}

func TestEvaluateQuiz_NoQuestionsIsConfigurationError(t *testing.T) {
	quiz := &model.Quiz{PassingScore: 70}
	_, err := EvaluateQuiz(quiz, map[string]string{})
	if !errors.Is(err, util.ErrQuizNoQuestions) {
		t.Errorf("err = %v, want ErrQuizNoQuestions", err)
	}

	// 题目存在但总分为 0 同样是配置错误
	quiz.Questions = []model.QuizQuestion{
		{UUIDBase: model.UUIDBase{ID: "q"}, Type: model.TrueFalse, Points: 0, CorrectAnswer: "true"},
	}
	_, err = EvaluateQuiz(quiz, map[string]string{"q": "true"})
	if !errors.Is(err, util.ErrQuizNoQuestions) {
		t.Errorf("zero total points: err = %v, want ErrQuizNoQuestions", err)
	}
}

func TestAttemptsRemaining(t *testing.T) {
	if got := attemptsRemaining(nil, 3); got != nil {
		t.Errorf("unlimited quiz: remaining = %v, want nil", *got)
	}

	two := 2
	tests := []struct {
		used, want int
	}{
		{0, 2},
		{1, 1},
		{2, 0},
		{3, 0}, // 不出现负数
	}
	for _, tt := range tests {
		got := attemptsRemaining(&two, tt.used)
		if got == nil || *got != tt.want {
			t.Errorf("attemptsRemaining(2, %d) = %v, want %d", tt.used, got, tt.want)
		}
	}
}

func TestCheckEligibility(t *testing.T) {
	one := 1
	two := 2

	tests := []struct {
		name       string
		status     model.EnrollmentStatus
		limit      *int
		used       int64
		wantNumber int
		wantErr    error
	}{
		{"first attempt", model.Enrolled, &two, 0, 1, nil},
		{"second attempt", model.Enrolled, &two, 1, 2, nil},
		{"limit reached", model.Enrolled, &two, 2, 0, util.ErrAttemptsExhausted},
		{"single attempt consumed", model.Enrolled, &one, 1, 0, util.ErrAttemptsExhausted},
		{"unlimited quiz", model.EnrollInProgress, nil, 5, 6, nil},
		{"dropped enrollment", model.EnrollDropped, &two, 0, 0, util.ErrNotEnrolled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			number, err := checkEligibility(tt.status, tt.limit, tt.used)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if number != tt.wantNumber {
				t.Errorf("attempt number = %d, want %d", number, tt.wantNumber)
			}
		})
	}
}

// 编号分配永远是 used+1，连续提交不产生空洞
func TestCheckEligibility_GapFreeNumbering(t *testing.T) {
	three := 3
	for used := int64(0); used < 3; used++ {
		number, err := checkEligibility(model.Enrolled, &three, used)
		if err != nil {
			t.Fatalf("used=%d: %v", used, err)
		}
		if number != int(used)+1 {
			t.Errorf("used=%d: attempt number = %d, want %d", used, number, used+1)
		}
	}
}

func TestSanitizeQuiz_NoAnswerLeakage(t *testing.T) {
	quiz := testQuiz()
	view := SanitizeQuiz(quiz)

	if len(view.Questions) != 2 {
		t.Fatalf("len(Questions) = %d, want 2", len(view.Questions))
	}

	// 学生视图保留题面与选项文本
	if view.Questions[0].Text == "" || len(view.Questions[0].Options) != 3 {
		t.Errorf("sanitized MC question lost content: %+v", view.Questions[0])
	}
	if view.PassingScore != quiz.PassingScore {
		t.Errorf("PassingScore = %d, want %d", view.PassingScore, quiz.PassingScore)
	}

	// LearnerQuestion / LearnerOption 类型本身不携带
	// CorrectAnswer / Explanation / IsCorrect 字段，
	// 选项 id 原样保留用于作答
	for _, opt := range view.Questions[0].Options {
		if opt.ID == "" || opt.Text == "" {
			t.Errorf("option missing id/text: %+v", opt)
		}
	}
}
