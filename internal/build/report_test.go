package build

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_DeriveOutcome(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Report)
		want   Outcome
	}{
		{"clean", func(*Report) {}, OutcomeSuccess},
		{"skips", func(r *Report) { r.Skips = append(r.Skips, Skip{Path: "x.md"}) }, OutcomeWarning},
		{"warnings", func(r *Report) { r.Warnings = append(r.Warnings, newWarnStageError(StageAssets, errors.New("w"))) }, OutcomeWarning},
		{"fatal", func(r *Report) { r.Errors = append(r.Errors, newFatalStageError(StagePosts, errors.New("f"))) }, OutcomeFailed},
		{"canceled", func(r *Report) { r.Errors = append(r.Errors, newCanceledStageError(StageClean, errors.New("c"))) }, OutcomeCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReport("id", "", fixedNow)
			tt.mutate(r)
			r.DeriveOutcome()
			assert.Equal(t, tt.want, r.Outcome)
		})
	}
}

func TestReport_WriteSkips(t *testing.T) {
	r := newReport("id", "", fixedNow)
	r.Built = 3
	r.Skips = []Skip{
		{Path: "posts/x.md", Code: "MissingFrontMatter", Message: "front matter block not found"},
		{Path: "posts/y.md", Code: "MissingRequiredField", Message: `missing required field "date"`},
	}

	var buf bytes.Buffer
	require.NoError(t, r.WriteSkips(&buf))
	assert.Equal(t, "built=3 skipped=2\n"+
		"skipped posts/x.md: MissingFrontMatter: front matter block not found\n"+
		`skipped posts/y.md: MissingRequiredField: missing required field "date"`+"\n", buf.String())
}

func TestReport_Summary(t *testing.T) {
	r := newReport("id", "", fixedNow)
	r.End = fixedNow.Add(1500 * time.Millisecond)
	r.Built = 2
	r.Assets = 4
	r.StageDurations[StageClean] = time.Millisecond
	r.DeriveOutcome()

	assert.Equal(t, "built=2 skipped=0 assets=4 duration=1.5s errors=0 warnings=0 stages=1 outcome=success", r.Summary())
}

func TestReport_PersistAtomic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	r := newReport("id", "cli", fixedNow)
	r.End = fixedNow
	r.Errors = append(r.Errors, newFatalStageError(StagePosts, errors.New("boom")))
	r.DeriveOutcome()

	require.NoError(t, r.Persist(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"build-report.json", "build-report.txt"}, names)

	txt, err := os.ReadFile(filepath.Join(dir, "build-report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(txt), "outcome=failed")
	assert.Contains(t, string(txt), "error: fatal stage posts: boom")

	js, err := os.ReadFile(filepath.Join(dir, "build-report.json"))
	require.NoError(t, err)
	assert.Contains(t, string(js), `"errors": [`)
	assert.Contains(t, string(js), `"skips": []`)
	assert.Contains(t, string(js), `"build_id": "id"`)
}
