package controller

import (
	"errors"
	"net/http"
	"strconv"

	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// GetLessonQuiz godoc
// @Summary 课时测验（学生视图）
// @Description 提交前的测验读模型，不含标准答案、正确标记和解析
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课时ID"
// @Success 200 {object} util.Response{data=service.LearnerQuizView}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/lessons/{id}/quiz [get]
func (c *QuizController) GetLessonQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	view, err := c.QuizService.GetQuizForLearner(user.UserID, uint(id))
	if err != nil {
		c.respondEngineError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// Submit godoc
// @Summary 提交测验答案
// @Description 判分并落答题台账；通过时级联课时与报名进度。并发冲突返回 409，可重试
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param body body service.SubmissionRequest true "答案与用时"
// @Success 200 {object} util.Response{data=service.SubmissionResult}
// @Failure 403 {object} util.Response "未报名或次数用尽"
// @Failure 409 {object} util.Response "并发冲突，请重试"
// @Failure 422 {object} util.Response "测验配置错误"
// @Router /api/quizzes/{id}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req service.SubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.Submit(user.UserID, uint(id), req)
	if err != nil {
		c.respondEngineError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// MyAttempts godoc
// @Summary 我的答题历史
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=[]model.QuizAttempt}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id}/attempts [get]
func (c *QuizController) MyAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	attempts, err := c.QuizService.ListMyAttempts(user.UserID, uint(id))
	if err != nil {
		c.respondEngineError(ctx, err)
		return
	}

	util.Success(ctx, attempts)
}

// ListAttempts godoc
// @Summary 测验答题台账（教师）
// @Description 只读的全量答题记录，分页
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/teacher/quizzes/{id}/attempts [get]
func (c *QuizController) ListAttempts(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	attempts, total, err := c.QuizService.ListQuizAttempts(uint(id), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  attempts,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// respondEngineError 引擎错误分类到 HTTP 状态码
func (c *QuizController) respondEngineError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAttemptsExhausted):
		// 次数用尽时带上剩余次数，调用方无需再查一次
		util.ErrorData(ctx, http.StatusForbidden, err.Error(), gin.H{"attemptsRemaining": 0})
	case errors.Is(err, util.ErrNotEnrolled):
		util.Forbidden(ctx, err.Error())
	case errors.Is(err, util.ErrQuizNotFound), errors.Is(err, util.ErrLessonNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrQuizNoQuestions):
		util.Error(ctx, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, util.ErrConcurrencyConflict):
		util.Conflict(ctx, "提交冲突，请重试")
	default:
		util.LogInternalError(ctx, err)
	}
}
