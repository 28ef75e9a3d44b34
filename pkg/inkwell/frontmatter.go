package inkwell

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BuildFrontmatter projects only the recognized fields out of an arbitrary
// submission. Everything else is dropped. Tags are accepted either as an
// array or as a comma-separated string.
func BuildFrontmatter(raw map[string]interface{}) Frontmatter {
	fm := Frontmatter{}
	if v, ok := raw["title"]; ok {
		fm.Title = stringValue(v)
	}
	if v, ok := raw["date"]; ok {
		fm.Date = stringValue(v)
	}
	if v, ok := raw["draft"]; ok {
		fm.Draft = boolValue(v)
	}
	if v, ok := raw["summary"]; ok {
		fm.Summary = strings.TrimSpace(stringValue(v))
	}
	if v, ok := raw["tags"]; ok {
		fm.Tags = normalizeTags(v)
	}
	return fm
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func boolValue(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	default:
		return false
	}
}

func normalizeTags(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return dropEmpty(t)
	case []interface{}:
		tags := make([]string, 0, len(t))
		for _, item := range t {
			tags = append(tags, stringValue(item))
		}
		return dropEmpty(tags)
	default:
		return dropEmpty(strings.Split(stringValue(t), ","))
	}
}

func dropEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SerializeDocument emits the canonical at-rest form: a frontmatter block
// delimited by --- lines, a blank line, then the body.
func SerializeDocument(fm Frontmatter, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	writeField(&b, "title", fm.Title)
	writeField(&b, "date", fm.Date)
	if fm.Draft {
		b.WriteString("draft: true\n")
	}
	if fm.Summary != "" {
		writeField(&b, "summary", fm.Summary)
	}
	if len(fm.Tags) > 0 {
		quoted := make([]string, len(fm.Tags))
		for i, tag := range fm.Tags {
			quoted[i] = strconv.Quote(tag)
		}
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(quoted, ", "))
	}
	b.WriteString("---\n\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// writeField quotes a string value only when it contains characters that
// would be structurally significant to a frontmatter parser.
func writeField(b *strings.Builder, key, value string) {
	if strings.ContainsAny(value, ":#>-") {
		fmt.Fprintf(b, "%s: %s\n", key, strconv.Quote(value))
		return
	}
	fmt.Fprintf(b, "%s: %s\n", key, value)
}

// ParseDocument splits a canonical document into frontmatter and body.
func ParseDocument(raw []byte) (Frontmatter, string, error) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return Frontmatter{}, "", fmt.Errorf("document has no frontmatter block")
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return Frontmatter{}, "", fmt.Errorf("unterminated frontmatter block")
	}
	block := rest[:end]
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return Frontmatter{}, "", fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	return fm, body, nil
}
