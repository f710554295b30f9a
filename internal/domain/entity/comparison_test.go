package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparisonSettingsApplyDefaults(t *testing.T) {
	s := ComparisonSettings{}
	s.ApplyDefaults()

	assert.Equal(t, 1, s.FrameInterval)
	assert.Equal(t, 0.1, s.Threshold)
	assert.False(t, s.StopOnFirstFail)
	assert.False(t, s.WriteToFile)
}

func TestComparisonSettingsApplyDefaultsKeepsExplicitValues(t *testing.T) {
	s := ComparisonSettings{FrameInterval: 5, Threshold: 0.25, StopOnFirstFail: true}
	s.ApplyDefaults()

	assert.Equal(t, 5, s.FrameInterval)
	assert.Equal(t, 0.25, s.Threshold)
	assert.True(t, s.StopOnFirstFail)
}

func TestComparisonSettingsValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings ComparisonSettings
		wantErr  bool
	}{
		{"defaults", ComparisonSettings{FrameInterval: 1, Threshold: 0.1}, false},
		{"interval every 10th", ComparisonSettings{FrameInterval: 10, Threshold: 0.1}, false},
		{"negative interval", ComparisonSettings{FrameInterval: -1, Threshold: 0.1}, true},
		{"zero interval", ComparisonSettings{FrameInterval: 0, Threshold: 0.1}, true},
		{"threshold above range", ComparisonSettings{FrameInterval: 1, Threshold: 1.5}, true},
		{"negative threshold", ComparisonSettings{FrameInterval: 1, Threshold: -0.1}, true},
		{"threshold at upper bound", ComparisonSettings{FrameInterval: 1, Threshold: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestComparisonResultRecordFrame(t *testing.T) {
	r := NewComparisonResult(ComparisonSettings{FrameInterval: 1, Threshold: 0.1})

	assert.True(t, r.Pass)
	assert.Equal(t, ResultTypeFull, r.Type)

	r.RecordFrame(1, 0, 3)
	assert.True(t, r.Pass)

	r.RecordFrame(2, 17, 4)
	assert.False(t, r.Pass)
	assert.Equal(t, FrameDiffResult{Diff: 17, Time: 4}, r.Frames[2])

	// once failed, a clean frame does not flip it back
	r.RecordFrame(3, 0, 2)
	assert.False(t, r.Pass)
}

func TestComparisonResultMarkCountMismatch(t *testing.T) {
	r := NewComparisonResult(ComparisonSettings{FrameInterval: 1, Threshold: 0.1})
	r.VideoA.FrameCount = 10
	r.VideoB.FrameCount = 8

	r.MarkCountMismatch()

	assert.False(t, r.Pass)
	assert.Equal(t, ResultTypeFull, r.Type)
	assert.Contains(t, r.Error, "10")
	assert.Contains(t, r.Error, "8")
	assert.Empty(t, r.Frames)
}

func TestComparisonResultJSONShape(t *testing.T) {
	r := NewComparisonResult(ComparisonSettings{FrameInterval: 2, Threshold: 0.1, StopOnFirstFail: true})
	r.VideoA.FrameCount = 5
	r.VideoB.FrameCount = 5
	r.RecordFrame(1, 0, 2)
	r.RecordFrame(3, 9, 1)
	r.MarkPartial()
	r.Times.SplitToFrames = 120
	r.Times.DiffFrames = 14

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, false, decoded["pass"])
	assert.Equal(t, "partial", decoded["type"])
	times := decoded["times"].(map[string]any)
	assert.Equal(t, float64(120), times["splitToFrames"])
	assert.Equal(t, float64(14), times["diffFrames"])
	assert.Equal(t, float64(5), decoded["videoA"].(map[string]any)["frameCount"])

	frames := decoded["frames"].(map[string]any)
	require.Len(t, frames, 2)
	assert.Equal(t, float64(9), frames["3"].(map[string]any)["diff"])
}

func TestComparisonJobLifecycle(t *testing.T) {
	job := NewComparisonJob("user-1", "u/a.mp4", "u/b.mp4", 3)

	assert.Equal(t, JobStatusPending, job.Status)
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.Equal(t, 1, job.Attempt)

	result := NewComparisonResult(ComparisonSettings{FrameInterval: 1, Threshold: 0.1})
	result.VideoA.FrameCount = 4
	result.VideoB.FrameCount = 4
	result.RecordFrame(1, 0, 1)

	job.MarkCompleted(result, "u/report.json", "")
	assert.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.Pass)
	assert.True(t, *job.Pass)
	assert.Equal(t, 4, job.FrameCountA)
	assert.Equal(t, 1, job.FramesDiffed)
	assert.NotNil(t, job.CompletedAt)
}

func TestComparisonJobRetryExhaustion(t *testing.T) {
	job := NewComparisonJob("user-1", "a", "b", 2)

	job.MarkProcessing()
	job.MarkFailed("boom")
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	job.MarkFailed("boom again")
	assert.False(t, job.CanRetry())
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "boom again", job.ErrorMessage)
}
