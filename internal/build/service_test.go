package build

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/metrics"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/notify"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/testutil"
)

var fixedNow = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func newTestService(stdout *bytes.Buffer) *Service {
	svc := NewService().WithClock(func() time.Time { return fixedNow })
	if stdout != nil {
		svc.WithStdout(stdout)
	}
	return svc
}

type recordingHistory struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHistory) Append(_ context.Context, buildID, eventType string, _ []byte, _ map[string]string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, eventType)
	return nil
}

type recordingNotifier struct {
	events []notify.BuildEvent
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.BuildEvent) error {
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

type recordingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []string
	built    int
	skipped  map[string]int
}

func (r *recordingRecorder) IncBuildOutcome(o string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingRecorder) AddPostsBuilt(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.built += n
}

func (r *recordingRecorder) IncPostSkipped(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.skipped == nil {
		r.skipped = map[string]int{}
	}
	r.skipped[code]++
}

func TestRun_EndToEnd(t *testing.T) {
	s := testutil.NewSite(t)
	s.Post("b.md", "title: Post B\ndate: 2024-01-02\nexcerpt: second", "Body **B**\n")
	s.Post("a.md", "title: Post A\ndate: 2024-01-05\nexcerpt: first", "Body **A**\n")

	var stdout bytes.Buffer
	res, err := newTestService(&stdout).Run(t.Context(), Request{Config: s.Config, Trigger: "cli"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 2, res.Built)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, OutcomeSuccess, res.Report.Outcome)
	assert.Equal(t, "built=2 skipped=0\n", stdout.String())

	index := s.Output("index.html")
	ia := strings.Index(index, "href='a.html'")
	ib := strings.Index(index, "href='b.html'")
	require.NotEqual(t, -1, ia)
	require.NotEqual(t, -1, ib)
	assert.Less(t, ia, ib, "newer post a must come first")
	assert.Contains(t, index, "&copy; 2024 Test Blog")

	sitemap := s.Output("sitemap.xml")
	assert.Contains(t, sitemap, "<loc>https://example.com/a.html</loc>")
	assert.Contains(t, sitemap, "<loc>https://example.com/b.html</loc>")
	assert.Equal(t, 3, strings.Count(sitemap, "<url>"))

	feed, err := gofeed.NewParser().ParseString(s.Output("rss.xml"))
	require.NoError(t, err)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "Post A", feed.Items[0].Title)
	assert.Equal(t, "Post B", feed.Items[1].Title)

	post := s.Output("a.html")
	assert.Contains(t, post, "<p>Body <strong>A</strong></p>")
	assert.Contains(t, post, "<title>Post A</title>")

	assert.Contains(t, s.Output("robots.txt"), "Sitemap: https://example.com/sitemap.xml")

	assert.Equal(t, []string{"a.html", "b.html", "index.html", "robots.txt", "rss.xml", "sitemap.xml", "style.css"}, s.OutputFiles())
}

func TestRun_StateTransitions(t *testing.T) {
	s := testutil.NewSite(t)
	s.SimplePost("a", "A", "2024-01-05")

	res, err := newTestService(nil).Run(t.Context(), Request{Config: s.Config})
	require.NoError(t, err)

	var states []State
	for _, tr := range res.Report.Transitions {
		states = append(states, tr.To)
	}
	assert.Equal(t, []State{StateCleaning, StatePopulating, StateDone}, states)
	assert.Equal(t, StateIdle, res.Report.Transitions[0].From)
}

func TestRun_HeaderlessFileSkipped(t *testing.T) {
	s := testutil.NewSite(t)
	s.SimplePost("a", "Post A", "2024-01-05")
	plain := s.Post("notes.md", "", "Just some text without metadata.\n")

	var stdout bytes.Buffer
	res, err := newTestService(&stdout).Run(t.Context(), Request{Config: s.Config})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, res.Built)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, OutcomeWarning, res.Report.Outcome)

	assert.Contains(t, stdout.String(), "built=1 skipped=1\n")
	assert.Contains(t, stdout.String(), "skipped "+plain+": MissingFrontMatter: ")

	fa := testutil.NewFileAssertions(t, s.Config.Paths.Output)
	fa.NotExists("notes.html").
		NotContains("index.html", "notes").
		NotContains("sitemap.xml", "notes").
		NotContains("rss.xml", "notes")
}

func TestRun_MissingTitleSkippedSiblingsBuild(t *testing.T) {
	s := testutil.NewSite(t)
	s.SimplePost("a", "Post A", "2024-01-05")
	s.SimplePost("c", "Post C", "2024-01-01")
	untitled := s.Post("b.md", "date: 2024-01-03", "No title here.\n")

	rec := &recordingRecorder{}
	res, err := newTestService(nil).WithRecorder(rec).Run(t.Context(), Request{Config: s.Config})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Built)

	require.Len(t, res.Report.Skips, 1)
	assert.Equal(t, Skip{Path: untitled, Code: "MissingRequiredField", Message: `missing required field "title"`}, res.Report.Skips[0])
	assert.Equal(t, map[string]int{"MissingRequiredField": 1}, rec.skipped)
	assert.Equal(t, 2, rec.built)
	assert.Equal(t, []string{"warning"}, rec.outcomes)

	fa := testutil.NewFileAssertions(t, s.Config.Paths.Output)
	fa.Exists("a.html").Exists("c.html").NotExists("b.html").Count("sitemap.xml", "<url>", 3)
}

func TestRun_DuplicateSlugIsFatal(t *testing.T) {
	s := testutil.NewSite(t)
	first := s.Post("one.md", "title: One\ndate: 2024-01-01\nslug: same", "one")
	second := s.Post("two.md", "title: Two\ndate: 2024-01-02\nslug: same", "two")

	history := &recordingHistory{}
	res, err := newTestService(nil).WithHistory(history).Run(t.Context(), Request{Config: s.Config})
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.CodeDuplicateSlug))
	assert.Contains(t, err.Error(), first)
	assert.Contains(t, err.Error(), second)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, OutcomeFailed, res.Report.Outcome)
	assert.Equal(t, StateFailed, res.Report.Transitions[len(res.Report.Transitions)-1].To)

	testutil.NewFileAssertions(t, s.Config.Paths.Output).NotExists("same.html").NotExists("index.html")
	assert.Equal(t, []string{"build.started", "build.failed"}, history.events)
}

func TestRun_ReservedSlug(t *testing.T) {
	s := testutil.NewSite(t)
	src := s.Post("a.md", "title: Home Post\ndate: 2024-01-05\nslug: index", "UNIQUE-POST-BODY")
	s.SimplePost("b", "Post B", "2024-01-02")

	res, err := newTestService(nil).Run(t.Context(), Request{Config: s.Config})
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.CodeDuplicateSlug))
	assert.Contains(t, err.Error(), "index.html")
	assert.Contains(t, err.Error(), src)
	assert.Equal(t, StatusFailed, res.Status)

	testutil.NewFileAssertions(t, s.Config.Paths.Output).
		NotExists("index.html").
		NotExists("b.html").
		NotExists("sitemap.xml")
}

func TestRun_SlugCollidesWithAsset(t *testing.T) {
	s := testutil.NewSite(t)
	s.Asset("about.html", "<p>static about</p>")
	s.Post("about.md", "title: About\ndate: 2024-01-05", "post about")

	_, err := newTestService(nil).Run(t.Context(), Request{Config: s.Config})
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.CodeDuplicateSlug))
	assert.Contains(t, err.Error(), "about.html")
	assert.Equal(t, "<p>static about</p>", s.Output("about.html"))
}

func TestRun_Idempotent(t *testing.T) {
	s := testutil.NewSite(t)
	for i := range 5 {
		s.SimplePost(fmt.Sprintf("post-%d", i), fmt.Sprintf("Post %d", i), fmt.Sprintf("2024-01-%02d", i+1))
	}
	s.Asset("img/logo.png", "png-bytes")

	svc := newTestService(nil)
	_, err := svc.Run(t.Context(), Request{Config: s.Config})
	require.NoError(t, err)
	first := s.Snapshot()

	// A stale file from an earlier layout must not survive a rebuild.
	require.NoError(t, os.WriteFile(filepath.Join(s.Config.Paths.Output, "stale.html"), []byte("old"), 0o600))

	_, err = svc.Run(t.Context(), Request{Config: s.Config})
	require.NoError(t, err)
	assert.Equal(t, first, s.Snapshot())
}

func TestRun_IndependentOfWorkerCount(t *testing.T) {
	build := func(workers int) map[string]string {
		s := testutil.NewSite(t)
		s.Config.Build.Workers = workers
		s.SimplePost("zeta", "Zeta", "2024-03-01")
		s.SimplePost("alpha", "Alpha", "2024-03-01")
		s.SimplePost("mid", "Mid", "2024-02-15T08:00:00Z")
		s.SimplePost("old", "Old", "2023-12-31")
		_, err := newTestService(nil).Run(t.Context(), Request{Config: s.Config})
		require.NoError(t, err)
		return s.Snapshot()
	}
	assert.Equal(t, build(1), build(8))
}

func TestRun_FeedLimitAndSitemapSize(t *testing.T) {
	s := testutil.NewSite(t)
	for i := range 25 {
		s.SimplePost(fmt.Sprintf("p%02d", i), fmt.Sprintf("Post %02d", i), fmt.Sprintf("2024-01-%02d", i+1))
	}

	res, err := newTestService(nil).Run(t.Context(), Request{Config: s.Config})
	require.NoError(t, err)
	assert.Equal(t, 25, res.Built)

	feed, err := gofeed.NewParser().ParseString(s.Output("rss.xml"))
	require.NoError(t, err)
	require.Len(t, feed.Items, 20)
	assert.Equal(t, "Post 24", feed.Items[0].Title)
	assert.Equal(t, "Post 05", feed.Items[19].Title)

	assert.Equal(t, 26, strings.Count(s.Output("sitemap.xml"), "<url>"))
}

func TestRun_MissingTemplateIsFatal(t *testing.T) {
	s := testutil.NewSite(t)
	s.SimplePost("a", "A", "2024-01-05")
	require.NoError(t, os.Remove(filepath.Join(s.Config.Paths.Templates, "post.html")))

	res, err := newTestService(nil).Run(t.Context(), Request{Config: s.Config})
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.CodeTemplateNotFound))
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, StageErrorFatal, mustStageError(t, err).Kind)
	assert.Equal(t, StageTemplates, mustStageError(t, err).Stage)
}

func TestRun_MissingPostsDirIsFatal(t *testing.T) {
	s := testutil.NewSite(t)
	require.NoError(t, os.RemoveAll(s.Config.Paths.Posts))

	_, err := newTestService(nil).Run(t.Context(), Request{Config: s.Config})
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.CodeSourceUnreadable))
}

func TestRun_MissingAssetsDirIsWarning(t *testing.T) {
	s := testutil.NewSite(t)
	s.SimplePost("a", "A", "2024-01-05")
	require.NoError(t, os.RemoveAll(s.Config.Paths.Assets))

	res, err := newTestService(nil).Run(t.Context(), Request{Config: s.Config})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, OutcomeWarning, res.Report.Outcome)
	require.Len(t, res.Report.Warnings, 1)
	assert.Equal(t, 1, res.Report.StageCounts[StageAssets].Warning)
}

func TestRun_AssetFileInsteadOfDirIsFatal(t *testing.T) {
	s := testutil.NewSite(t)
	require.NoError(t, os.RemoveAll(s.Config.Paths.Assets))
	require.NoError(t, os.WriteFile(s.Config.Paths.Assets, []byte("x"), 0o600))

	_, err := newTestService(nil).Run(t.Context(), Request{Config: s.Config})
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.CodeAssetSourceUnreadable))
}

func TestRun_RefusesOutputContainingInputs(t *testing.T) {
	s := testutil.NewSite(t)
	s.SimplePost("a", "A", "2024-01-05")
	s.Config.Paths.Output = s.Root

	_, err := newTestService(nil).Run(t.Context(), Request{Config: s.Config})
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.CodeOutputDirectoryUnavailable))
	testutil.NewFileAssertions(t, s.Config.Paths.Posts).Exists("a.md")
}

func TestRun_Canceled(t *testing.T) {
	s := testutil.NewSite(t)
	s.SimplePost("a", "A", "2024-01-05")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	notifier := &recordingNotifier{}
	res, err := newTestService(nil).WithNotifier(notifier).Run(ctx, Request{Config: s.Config})
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.CodeCanceled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCanceled, res.Status)
	assert.Equal(t, StageErrorCanceled, mustStageError(t, err).Kind)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, notify.EventBuildFailed, notifier.events[0].Type)
	assert.Equal(t, "canceled", notifier.events[0].Outcome)
}

func TestRun_NilConfig(t *testing.T) {
	res, err := newTestService(nil).Run(t.Context(), Request{})
	require.Error(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))
}

func TestRun_VerifyLinks(t *testing.T) {
	s := testutil.NewSite(t)
	s.Config.Build.VerifyLinks = true
	s.SimplePost("a", "A", "2024-01-05")
	s.Post("b.md", "title: B\ndate: 2024-01-04", "See [a](a.html) and [missing](nowhere.html).\n")

	res, err := newTestService(nil).Run(t.Context(), Request{Config: s.Config})
	require.NoError(t, err)
	require.NotNil(t, res.Report.Links)
	require.Len(t, res.Report.Links.Broken, 1)
	assert.Equal(t, "b.html", res.Report.Links.Broken[0].Page)
	assert.Equal(t, "nowhere.html", res.Report.Links.Broken[0].Target)
	assert.Equal(t, OutcomeWarning, res.Report.Outcome)
	assert.Equal(t, 1, res.Report.StageCounts[StageLinks].Warning)
}

func TestRun_PersistsReportAndNotifies(t *testing.T) {
	s := testutil.NewSite(t)
	s.SimplePost("a", "A", "2024-01-05")
	s.Config.Report.Directory = filepath.Join(s.Root, "reports")

	history := &recordingHistory{}
	notifier := &recordingNotifier{}
	res, err := newTestService(nil).
		WithHistory(history).
		WithNotifier(notifier).
		Run(t.Context(), Request{Config: s.Config, Trigger: "watch"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(s.Config.Report.Directory, "build-report.json"))
	require.NoError(t, err)
	var decoded ReportSerializable
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, res.Report.BuildID, decoded.BuildID)
	assert.Equal(t, 1, decoded.Built)
	assert.Equal(t, "watch", decoded.Trigger)
	assert.Equal(t, "success", decoded.Outcome)
	require.NotNil(t, decoded.Manifest)
	require.Len(t, decoded.Manifest.Posts, 1)
	assert.NotEmpty(t, decoded.Manifest.Posts[0].Fingerprint)
	assert.NotEmpty(t, decoded.ManifestHash)

	txt, err := os.ReadFile(filepath.Join(s.Config.Report.Directory, "build-report.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(txt), "built=1 skipped=0 "))

	assert.Equal(t, []string{"build.started", "build.completed"}, history.events)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, notify.EventBuildCompleted, notifier.events[0].Type)
	assert.Equal(t, "watch", notifier.events[0].Trigger)
	assert.Equal(t, 1, notifier.events[0].Built)
}

func mustStageError(t *testing.T, err error) *StageError {
	t.Helper()
	se, ok := asStageError(err)
	require.True(t, ok, "expected a StageError, got %T", err)
	return se
}
