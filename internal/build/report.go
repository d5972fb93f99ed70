package build

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/linkverify"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/manifest"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/version"
)

// Outcome is the typed enumeration of final build result states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Skip describes a source file that was left out of the site.
type Skip struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Report captures what happened during one build.
type Report struct {
	SchemaVersion  int
	BuildID        string
	Trigger        string
	Start          time.Time
	End            time.Time
	Transitions    []Transition
	StageDurations map[StageName]time.Duration
	StageCounts    map[StageName]StageCount
	Errors         []error // fatal errors causing build abortion (at most one today)
	Warnings       []error // non-fatal stage issues
	Sources        int
	Built          int
	Skips          []Skip
	Assets         int
	Outcome        Outcome
	SourceRevision string
	Manifest       *manifest.Manifest
	ManifestHash   string
	Links          *linkverify.Result
	Version        string
}

func newReport(buildID, trigger string, start time.Time) *Report {
	return &Report{
		SchemaVersion:  1,
		BuildID:        buildID,
		Trigger:        trigger,
		Start:          start,
		StageDurations: make(map[StageName]time.Duration),
		StageCounts:    make(map[StageName]StageCount),
		Manifest:       &manifest.Manifest{},
		Version:        version.Resolved(),
	}
}

// Skipped returns the number of skipped source files.
func (r *Report) Skipped() int { return len(r.Skips) }

// DeriveOutcome sets Outcome from the recorded errors, warnings and skips.
func (r *Report) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 || len(r.Skips) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("built=%d skipped=%d assets=%d duration=%s errors=%d warnings=%d stages=%d outcome=%s",
		r.Built, len(r.Skips), r.Assets, dur.Truncate(time.Millisecond),
		len(r.Errors), len(r.Warnings), len(r.StageDurations), string(r.Outcome))
}

// WriteSkips writes the summary line followed by one diagnostic line per
// skipped file.
func (r *Report) WriteSkips(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "built=%d skipped=%d\n", r.Built, len(r.Skips))
	for _, s := range r.Skips {
		fmt.Fprintf(&b, "skipped %s: %s: %s\n", s.Path, s.Code, s.Message)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Persist writes build-report.json and build-report.txt atomically into root.
func (r *Report) Persist(root string) error {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeAtomic(filepath.Join(root, "build-report.json"), jb); err != nil {
		return err
	}

	var txt strings.Builder
	txt.WriteString(r.Summary() + "\n")
	for _, s := range r.Skips {
		fmt.Fprintf(&txt, "skipped %s: %s: %s\n", s.Path, s.Code, s.Message)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&txt, "error: %v\n", e)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&txt, "warning: %v\n", w)
	}
	return writeAtomic(filepath.Join(root, "build-report.txt"), []byte(txt.String()))
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReportSerializable mirrors Report with string errors for JSON output.
type ReportSerializable struct {
	SchemaVersion  int                      `json:"schema_version"`
	BuildID        string                   `json:"build_id"`
	Trigger        string                   `json:"trigger,omitempty"`
	Start          time.Time                `json:"start"`
	End            time.Time                `json:"end"`
	Transitions    []Transition             `json:"transitions"`
	StageDurations map[string]time.Duration `json:"stage_durations"`
	StageCounts    map[string]StageCount    `json:"stage_counts"`
	Errors         []string                 `json:"errors"`
	Warnings       []string                 `json:"warnings"`
	Sources        int                      `json:"sources"`
	Built          int                      `json:"built"`
	Skips          []Skip                   `json:"skips"`
	Assets         int                      `json:"assets"`
	Outcome        string                   `json:"outcome"`
	SourceRevision string                   `json:"source_revision,omitempty"`
	Manifest       *manifest.Manifest       `json:"manifest,omitempty"`
	ManifestHash   string                   `json:"manifest_hash,omitempty"`
	Links          *linkverify.Result       `json:"links,omitempty"`
	Version        string                   `json:"version,omitempty"`
}

// SanitizedCopy converts the report into its JSON-friendly form.
func (r *Report) SanitizedCopy() *ReportSerializable {
	durations := make(map[string]time.Duration, len(r.StageDurations))
	for k, v := range r.StageDurations {
		durations[string(k)] = v
	}
	counts := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		counts[string(k)] = v
	}
	skips := r.Skips
	if skips == nil {
		skips = []Skip{}
	}
	transitions := r.Transitions
	if transitions == nil {
		transitions = []Transition{}
	}

	s := &ReportSerializable{
		SchemaVersion:  r.SchemaVersion,
		BuildID:        r.BuildID,
		Trigger:        r.Trigger,
		Start:          r.Start,
		End:            r.End,
		Transitions:    transitions,
		StageDurations: durations,
		StageCounts:    counts,
		Errors:         make([]string, len(r.Errors)),
		Warnings:       make([]string, len(r.Warnings)),
		Sources:        r.Sources,
		Built:          r.Built,
		Skips:          skips,
		Assets:         r.Assets,
		Outcome:        string(r.Outcome),
		SourceRevision: r.SourceRevision,
		Manifest:       r.Manifest,
		ManifestHash:   r.ManifestHash,
		Links:          r.Links,
		Version:        r.Version,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}
