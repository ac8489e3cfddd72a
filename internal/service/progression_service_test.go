package service

import (
	"testing"
	"time"

	"lms_backend/internal/model"
)

func TestCompleteLessonProgress(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	progress := &model.LessonProgress{Status: model.LessonNotStarted}

	if !completeLessonProgress(progress, t1) {
		t.Fatal("first completion must report a transition")
	}
	if progress.Status != model.LessonCompleted {
		t.Errorf("Status = %q, want %q", progress.Status, model.LessonCompleted)
	}
	if progress.CompletedAt == nil || !progress.CompletedAt.Equal(t1) {
		t.Fatalf("CompletedAt = %v, want %v", progress.CompletedAt, t1)
	}

	// 重复完成是 no-op，CompletedAt 保持首次时间
	if completeLessonProgress(progress, t2) {
		t.Error("second completion must be a no-op")
	}
	if !progress.CompletedAt.Equal(t1) {
		t.Errorf("CompletedAt = %v, want first completion time %v", progress.CompletedAt, t1)
	}
}

func TestCompleteLessonProgress_FromInProgress(t *testing.T) {
	now := time.Now()
	progress := &model.LessonProgress{Status: model.LessonInProgress}

	if !completeLessonProgress(progress, now) {
		t.Fatal("in_progress lesson must transition to completed")
	}
	if progress.Status != model.LessonCompleted {
		t.Errorf("Status = %q, want %q", progress.Status, model.LessonCompleted)
	}
}

func TestNextEnrollmentState(t *testing.T) {
	tests := []struct {
		name          string
		status        model.EnrollmentStatus
		percent       int
		wantStatus    model.EnrollmentStatus
		wantCompleted bool
	}{
		{"enrolled below 100 stays put", model.Enrolled, 50, model.Enrolled, false},
		{"in_progress below 100 stays put", model.EnrollInProgress, 75, model.EnrollInProgress, false},
		{"enrolled reaching 100 completes", model.Enrolled, 100, model.EnrollCompleted, true},
		{"in_progress reaching 100 completes", model.EnrollInProgress, 100, model.EnrollCompleted, true},
		// completed 是终态，重算结果偏低也不回退
		{"completed never regresses", model.EnrollCompleted, 50, model.EnrollCompleted, false},
		{"completed at 100 no re-transition", model.EnrollCompleted, 100, model.EnrollCompleted, false},
		{"zero percent untouched", model.Enrolled, 0, model.Enrolled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, completed := nextEnrollmentState(tt.status, tt.percent)
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if completed != tt.wantCompleted {
				t.Errorf("completed = %v, want %v", completed, tt.wantCompleted)
			}
		})
	}
}

func TestProgressPercentByLessonCount(t *testing.T) {
	// 进度百分比与级联重算使用同一个舍入函数
	tests := []struct {
		completed, total, want int
	}{
		{0, 4, 0},
		{1, 4, 25},
		{2, 4, 50},
		{3, 4, 75},
		{4, 4, 100},
		{1, 3, 33},
		{2, 3, 67},
	}

	for _, tt := range tests {
		if got := RoundPercent(tt.completed, tt.total); got != tt.want {
			t.Errorf("RoundPercent(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}
