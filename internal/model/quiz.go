package model

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// Quiz 每个课时至多一份测验。一旦存在答题记录即视为不可变。
type Quiz struct {
	BaseModel
	LessonID        uint           `gorm:"uniqueIndex;not null" json:"lessonId"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	PassingScore    int            `gorm:"not null;default:60" json:"passingScore"` // 0-100 百分比
	AttemptsAllowed *int           `json:"attemptsAllowed"`                        // null 表示不限次数
	Questions       []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion 的判分数据按题型分治：
// multiple_choice 用 Options（且必须恰好一个 IsCorrect），
// true_false / short_answer 用 CorrectAnswer。
type QuizQuestion struct {
	UUIDBase
	QuizID        uint             `gorm:"index;not null" json:"quizId"`
	Type          QuestionType     `gorm:"type:enum('multiple_choice','true_false','short_answer');not null" json:"type"`
	Text          string           `gorm:"type:text;not null" json:"text"`
	Points        int              `gorm:"not null;default:1" json:"points"`
	Order         int              `gorm:"default:0" json:"order"`
	CorrectAnswer string           `gorm:"size:512" json:"correctAnswer,omitempty"`
	Explanation   string           `gorm:"type:text" json:"explanation,omitempty"`
	Options       []QuestionOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

type QuestionOption struct {
	UUIDBase
	QuestionID string `gorm:"index;type:varchar(36);not null" json:"questionId"`
	Text       string `gorm:"size:512;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect,omitempty"`
}

func (QuestionOption) TableName() string {
	return "question_options"
}
