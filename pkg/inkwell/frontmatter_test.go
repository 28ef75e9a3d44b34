package inkwell_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-cms/inkwell/pkg/inkwell"
)

func TestBuildFrontmatter(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]interface{}
		expected inkwell.Frontmatter
	}{
		{
			name: "recognized fields only",
			raw: map[string]interface{}{
				"title":   "Hello",
				"date":    "2025-01-15",
				"draft":   true,
				"summary": "  a summary  ",
				"tags":    []interface{}{"go", "blog"},
			},
			expected: inkwell.Frontmatter{
				Title:   "Hello",
				Date:    "2025-01-15",
				Draft:   true,
				Summary: "a summary",
				Tags:    []string{"go", "blog"},
			},
		},
		{
			name: "unknown fields dropped",
			raw: map[string]interface{}{
				"title":  "Hello",
				"date":   "2025-01-15",
				"layout": "post",
				"author": "someone",
			},
			expected: inkwell.Frontmatter{Title: "Hello", Date: "2025-01-15"},
		},
		{
			name: "tags as comma separated string",
			raw: map[string]interface{}{
				"title": "Hello",
				"date":  "2025-01-15",
				"tags":  "go, blog , ,tools",
			},
			expected: inkwell.Frontmatter{
				Title: "Hello",
				Date:  "2025-01-15",
				Tags:  []string{"go", "blog", "tools"},
			},
		},
		{
			name: "draft as string",
			raw: map[string]interface{}{
				"title": "Hello",
				"date":  "2025-01-15",
				"draft": "true",
			},
			expected: inkwell.Frontmatter{Title: "Hello", Date: "2025-01-15", Draft: true},
		},
		{
			name: "empty tags become nil",
			raw: map[string]interface{}{
				"title": "Hello",
				"date":  "2025-01-15",
				"tags":  []interface{}{"", "  "},
			},
			expected: inkwell.Frontmatter{Title: "Hello", Date: "2025-01-15"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, inkwell.BuildFrontmatter(tt.raw))
		})
	}
}

func TestSerializeDocument(t *testing.T) {
	t.Run("minimal document", func(t *testing.T) {
		doc := inkwell.SerializeDocument(inkwell.Frontmatter{
			Title: "Hello",
			Date:  "2025-01-15",
		}, "Body text")

		assert.Equal(t, "---\ntitle: Hello\ndate: \"2025-01-15\"\n---\n\nBody text\n", doc)
	})

	t.Run("draft flag only when true", func(t *testing.T) {
		published := inkwell.SerializeDocument(inkwell.Frontmatter{Title: "A", Date: "2025-01-15"}, "x")
		draft := inkwell.SerializeDocument(inkwell.Frontmatter{Title: "A", Date: "2025-01-15", Draft: true}, "x")

		assert.NotContains(t, published, "draft:")
		assert.Contains(t, draft, "draft: true\n")
	})

	t.Run("titles with structural characters are quoted", func(t *testing.T) {
		doc := inkwell.SerializeDocument(inkwell.Frontmatter{
			Title: "Go: the good parts",
			Date:  "2025-01-15",
		}, "x")

		assert.Contains(t, doc, `title: "Go: the good parts"`+"\n")
	})

	t.Run("plain titles are not quoted", func(t *testing.T) {
		doc := inkwell.SerializeDocument(inkwell.Frontmatter{
			Title: "Plain title",
			Date:  "2025-01-15",
		}, "x")

		assert.Contains(t, doc, "title: Plain title\n")
	})

	t.Run("tags as quoted flow array", func(t *testing.T) {
		doc := inkwell.SerializeDocument(inkwell.Frontmatter{
			Title: "A",
			Date:  "2025-01-15",
			Tags:  []string{"go", "c++"},
		}, "x")

		assert.Contains(t, doc, `tags: ["go", "c++"]`+"\n")
	})

	t.Run("trailing newline ensured", func(t *testing.T) {
		doc := inkwell.SerializeDocument(inkwell.Frontmatter{Title: "A", Date: "2025-01-15"}, "no newline")
		assert.True(t, strings.HasSuffix(doc, "no newline\n"))

		doc = inkwell.SerializeDocument(inkwell.Frontmatter{Title: "A", Date: "2025-01-15"}, "has newline\n")
		assert.False(t, strings.HasSuffix(doc, "\n\n"))
	})
}

func TestParseDocument(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		original := inkwell.Frontmatter{
			Title:   "Go: the good parts",
			Date:    "2025-01-15",
			Draft:   true,
			Summary: "A summary with #hashtag",
			Tags:    []string{"go", "notes"},
		}
		body := "First paragraph.\n\nSecond paragraph.\n"

		doc := inkwell.SerializeDocument(original, body)
		fm, parsedBody, err := inkwell.ParseDocument([]byte(doc))
		require.NoError(t, err)

		assert.Equal(t, original, fm)
		assert.Equal(t, body, parsedBody)
	})

	t.Run("lastmod is recognized on read", func(t *testing.T) {
		raw := "---\ntitle: A\ndate: 2025-01-15\nlastmod: 2025-02-01\n---\n\nbody\n"
		fm, _, err := inkwell.ParseDocument([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, "2025-02-01", fm.LastMod)
	})

	t.Run("windows line endings", func(t *testing.T) {
		raw := "---\r\ntitle: A\r\ndate: 2025-01-15\r\n---\r\n\r\nbody\r\n"
		fm, body, err := inkwell.ParseDocument([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, "A", fm.Title)
		assert.Equal(t, "body\n", body)
	})

	t.Run("missing frontmatter block", func(t *testing.T) {
		_, _, err := inkwell.ParseDocument([]byte("just a body"))
		assert.Error(t, err)
	})

	t.Run("unterminated frontmatter block", func(t *testing.T) {
		_, _, err := inkwell.ParseDocument([]byte("---\ntitle: A\nno terminator"))
		assert.Error(t, err)
	})
}
