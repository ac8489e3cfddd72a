package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

func TestRespondEngineError_AttemptsExhausted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	c := &QuizController{}
	c.respondEngineError(ctx, util.ErrAttemptsExhausted)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// 403 响应体要携带 attemptsRemaining=0
	var resp struct {
		Data struct {
			AttemptsRemaining *int `json:"attemptsRemaining"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Data.AttemptsRemaining == nil || *resp.Data.AttemptsRemaining != 0 {
		t.Errorf("attemptsRemaining = %v, want 0", resp.Data.AttemptsRemaining)
	}
}

func TestRespondEngineError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not enrolled", util.ErrNotEnrolled, http.StatusForbidden},
		{"quiz not found", util.ErrQuizNotFound, http.StatusNotFound},
		{"lesson not found", util.ErrLessonNotFound, http.StatusNotFound},
		{"quiz misconfigured", util.ErrQuizNoQuestions, http.StatusUnprocessableEntity},
		{"concurrent conflict", util.ErrConcurrencyConflict, http.StatusConflict},
	}

	c := &QuizController{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			c.respondEngineError(ctx, tt.err)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
