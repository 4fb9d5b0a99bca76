// Package document renders video metadata into the text blob that gets
// encoded into an embedding. The rendering is deterministic: identical
// metadata always produces an identical blob, which keeps re-indexing
// idempotent.
package document

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ThisaraAriyawansha/vueon-search/pkg/types"
)

// ParseTags decodes the tags column as stored by the platform. The primary
// wire form is a JSON string array; a plain comma-separated list is accepted
// as a fallback for rows written before tags were JSON-encoded. Blank input
// yields no tags and no error. A malformed JSON payload is a hard error
// wrapping types.ErrDocumentBuild.
func ParseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, fmt.Errorf("%w: unparsable tags %q: %v", types.ErrDocumentBuild, raw, err)
		}
		return tags, nil
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags, nil
}

// BuildText concatenates the video's metadata fields in a fixed order:
// title, description, category, transcript, tags, then literal phrases for
// duration and view count. Empty fields are skipped entirely, fields are
// joined by a single space, and the result is lower-cased. Pure function.
func BuildText(v types.Video) string {
	parts := make([]string, 0, 7)

	for _, field := range []string{v.Title, v.Description, v.Category, v.Transcript} {
		if field != "" {
			parts = append(parts, field)
		}
	}

	if len(v.Tags) > 0 {
		parts = append(parts, strings.Join(v.Tags, " "))
	}

	if v.Duration > 0 {
		parts = append(parts, fmt.Sprintf("duration: %d", v.Duration))
	}

	if v.Views > 0 {
		parts = append(parts, fmt.Sprintf("popular with %d views", v.Views))
	}

	return strings.ToLower(strings.Join(parts, " "))
}
