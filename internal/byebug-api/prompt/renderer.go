// Package prompt binds a template's {{task.<field>}} placeholders to a
// task's field values. Rendering is a constrained lookup over a fixed
// field set rather than a general templating engine: a reference to a
// field that does not exist on the task schema fails the render instead
// of silently substituting an empty string.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"byebug-backend/internal/byebug-api/db"
)

// RenderError reports a placeholder that does not resolve to a
// permitted task field.
type RenderError struct {
	Ref string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("template references unknown task field %q", e.Ref)
}

// taskFields enumerates the permitted placeholder names. Optional
// fields resolve to "" when unset; only unknown names are errors.
var taskFields = map[string]func(t *db.Task) string{
	"id":          func(t *db.Task) string { return t.ID },
	"task_name":   func(t *db.Task) string { return t.TaskName },
	"explanation": func(t *db.Task) string { return t.Explanation },
	"code_before": func(t *db.Task) string { return t.CodeBefore },
	"code_after":  func(t *db.Task) string { return deref(t.CodeAfter) },
	"test_output": func(t *db.Task) string { return t.TestOutput },
	"status":      func(t *db.Task) string { return t.Status },
	"github_link": func(t *db.Task) string { return deref(t.GithubLink) },
	"created_at":  func(t *db.Task) string { return t.CreatedAt.UTC().Format(time.RFC3339) },
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// Render substitutes every {{task.<field>}} placeholder in content with
// the corresponding field of task. It is pure and deterministic. Any
// placeholder that is not task.<permitted-field> fails with a
// *RenderError; the caller must not downgrade that to a blank value.
func Render(content string, task *db.Task) (string, error) {
	var renderErr *RenderError
	rendered := placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		if renderErr != nil {
			return match
		}
		ref := strings.TrimSpace(match[2 : len(match)-2])
		name, ok := strings.CutPrefix(ref, "task.")
		if !ok {
			renderErr = &RenderError{Ref: ref}
			return match
		}
		lookup, ok := taskFields[name]
		if !ok {
			renderErr = &RenderError{Ref: ref}
			return match
		}
		return lookup(task)
	})
	if renderErr != nil {
		return "", renderErr
	}
	return rendered, nil
}

// Quote percent-encodes s for embedding in a URL query component.
// RFC 3986 unreserved characters and "/" pass through untouched,
// everything else becomes %XX byte-wise with uppercase hex: space is
// "%20" (not "+") and ":" is "%3A", matching the encoding the launch
// page expects in its prompt parameter.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' ||
		'A' <= c && c <= 'Z' ||
		'0' <= c && c <= '9' ||
		c == '-' || c == '_' || c == '.' || c == '~'
}
