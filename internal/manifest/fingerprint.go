package manifest

import (
	"errors"
	"strings"

	"github.com/inful/mdfp"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/frontmatter"
)

// Fingerprint computes the canonical content fingerprint of a post.
//
// Canonicalization:
//   - excludes a stored fingerprint field, every other key counts
//   - serializes front matter with sorted keys
//   - trims a single trailing newline before hashing
func Fingerprint(fields map[string]any, body string) (string, error) {
	if fields == nil {
		return "", errors.New("fields map is nil")
	}

	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}

	fm := ""
	if len(forHash) > 0 {
		serialized, err := frontmatter.SerializeYAML(forHash)
		if err != nil {
			return "", err
		}
		fm = trimSingleTrailingNewline(string(serialized))
	}

	return mdfp.CalculateFingerprintFromParts(fm, body), nil
}

func trimSingleTrailingNewline(s string) string {
	if before, ok := strings.CutSuffix(s, "\r\n"); ok {
		return before
	}
	if before, ok := strings.CutSuffix(s, "\n"); ok {
		return before
	}
	return s
}
