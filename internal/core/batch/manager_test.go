package batch

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewBatchIDFormat(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	id := newBatchID(now)
	assert.Regexp(t, regexp.MustCompile(`^batch_20260314_092653_[0-9a-f]{8}$`), id)
}

func TestNewTaskIDFormat(t *testing.T) {
	id := newTaskID()
	assert.Regexp(t, regexp.MustCompile(`^task_[0-9a-f]{12}$`), id)
	assert.NotEqual(t, id, newTaskID())
}

func TestFinalStatus(t *testing.T) {
	tests := []struct {
		name   string
		batch  Batch
		errMsg string
		want   BatchStatus
	}{
		{
			name:  "all urls completed",
			batch: Batch{TotalURLs: 3, CompletedURLs: 3},
			want:  BatchCompleted,
		},
		{
			name:  "mixed completed and failed",
			batch: Batch{TotalURLs: 3, CompletedURLs: 2, FailedURLs: 1},
			want:  BatchPartiallyCompleted,
		},
		{
			name:  "every url failed",
			batch: Batch{TotalURLs: 3, FailedURLs: 3},
			want:  BatchFailed,
		},
		{
			name:   "executor error overrides counters",
			batch:  Batch{TotalURLs: 3, CompletedURLs: 3},
			errMsg: "worker pool crashed",
			want:   BatchFailed,
		},
		{
			name:  "empty batch",
			batch: Batch{},
			want:  BatchCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, finalStatus(&tt.batch, tt.errMsg))
		})
	}
}
