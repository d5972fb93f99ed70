// Package manifest records what went into a build: the source revision and a
// content fingerprint per post. The build report embeds it so two runs over
// the same inputs can be compared without diffing the output tree.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Entry describes one published post.
type Entry struct {
	Slug        string `json:"slug"`
	Source      string `json:"source"`
	Fingerprint string `json:"fingerprint"`
}

// Manifest is the set of inputs of a single build.
type Manifest struct {
	SourceRevision string  `json:"source_revision,omitempty"`
	Posts          []Entry `json:"posts"`
}

// Add appends an entry. Entries are kept sorted by slug.
func (m *Manifest) Add(e Entry) {
	i, _ := slices.BinarySearchFunc(m.Posts, e.Slug, func(a Entry, slug string) int {
		return strings.Compare(a.Slug, slug)
	})
	m.Posts = slices.Insert(m.Posts, i, e)
}

// Fingerprints returns slug to fingerprint.
func (m *Manifest) Fingerprints() map[string]string {
	out := make(map[string]string, len(m.Posts))
	for _, e := range m.Posts {
		out[e.Slug] = e.Fingerprint
	}
	return out
}

// Hash is a digest of every post fingerprint and the source revision. Equal
// hashes mean the builds consumed identical content.
func (m *Manifest) Hash() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Diff lists slugs that were added, removed, or changed relative to prev.
func (m *Manifest) Diff(prev *Manifest) (added, removed, changed []string) {
	cur := m.Fingerprints()
	var old map[string]string
	if prev != nil {
		old = prev.Fingerprints()
	}
	for _, e := range m.Posts {
		fp, ok := old[e.Slug]
		switch {
		case !ok:
			added = append(added, e.Slug)
		case fp != e.Fingerprint:
			changed = append(changed, e.Slug)
		}
	}
	if prev != nil {
		for _, e := range prev.Posts {
			if _, ok := cur[e.Slug]; !ok {
				removed = append(removed, e.Slug)
			}
		}
	}
	return added, removed, changed
}
