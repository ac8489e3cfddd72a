package database

import (
	"fmt"
	"log"

	"lms_backend/internal/config"
	"lms_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dbCfg := &cfg.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.DBName,
		dbCfg.Charset,
		dbCfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式默认不自动迁移，需通过 -migrate 显式开启
	if cfg.Server.Mode == "release" && !cfg.ForceMigrate {
		return db, nil
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Quiz{},
		&model.QuizQuestion{},
		&model.QuestionOption{},
		&model.QuizAttempt{},
		&model.Enrollment{},
		&model.LessonProgress{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedDemoCourse(db)

	return db, nil
}

// 默认演示课程（空库时插入，方便本地联调测验提交链路）
func seedDemoCourse(db *gorm.DB) {
	var count int64
	db.Model(&model.Course{}).Count(&count)
	if count != 0 {
		return
	}

	course := &model.Course{
		Title:       "C 语言入门",
		Description: "从零开始的 C 语言基础课程",
		IsPublished: true,
	}
	if err := db.Create(course).Error; err != nil {
		return
	}

	lessons := []model.Lesson{
		{CourseID: course.ID, Title: "变量与类型", Order: 1},
		{CourseID: course.ID, Title: "控制流", Order: 2},
		{CourseID: course.ID, Title: "函数", Order: 3},
		{CourseID: course.ID, Title: "指针", Order: 4},
	}
	for i := range lessons {
		db.Create(&lessons[i])
	}

	two := 2
	quiz := &model.Quiz{
		LessonID:        lessons[0].ID,
		Title:           "变量与类型 随堂测验",
		PassingScore:    70,
		AttemptsAllowed: &two,
	}
	if err := db.Create(quiz).Error; err != nil {
		return
	}

	q1 := &model.QuizQuestion{
		QuizID: quiz.ID,
		Type:   model.MultipleChoice,
		Text:   "下列哪个是合法的 int 变量声明？",
		Points: 5,
		Order:  1,
	}
	db.Create(q1)
	db.Create(&model.QuestionOption{QuestionID: q1.ID, Text: "int x;", IsCorrect: true})
	db.Create(&model.QuestionOption{QuestionID: q1.ID, Text: "x int;"})
	db.Create(&model.QuestionOption{QuestionID: q1.ID, Text: "integer x;"})

	db.Create(&model.QuizQuestion{
		QuizID:        quiz.ID,
		Type:          model.TrueFalse,
		Text:          "char 类型占一个字节。",
		Points:        5,
		Order:         2,
		CorrectAnswer: "true",
		Explanation:   "C 标准规定 sizeof(char) == 1。",
	})
}
