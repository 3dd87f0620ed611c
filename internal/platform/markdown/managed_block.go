package markdown

import (
	"fmt"
	"strings"
)

func blockMarkers(name string) (string, string) {
	return fmt.Sprintf("<!-- stillpoint:%s -->", name), fmt.Sprintf("<!-- /stillpoint:%s -->", name)
}

// ReplaceBlock rewrites the generated block called name and leaves the rest
// of the body untouched. A missing block is inserted at the top.
func ReplaceBlock(body, name, generated string) string {
	open, closing := blockMarkers(name)
	block := open + "\n" + strings.TrimRight(generated, "\n") + "\n" + closing

	start := strings.Index(body, open)
	end := strings.Index(body, closing)
	if start >= 0 && end > start {
		return body[:start] + block + body[end+len(closing):]
	}
	rest := strings.TrimLeft(body, "\n")
	if strings.TrimSpace(rest) == "" {
		return block + "\n"
	}
	return block + "\n\n" + rest
}

// Block returns the content of the named block, if present.
func Block(body, name string) (string, bool) {
	open, closing := blockMarkers(name)
	start := strings.Index(body, open)
	end := strings.Index(body, closing)
	if start < 0 || end <= start {
		return "", false
	}
	return strings.Trim(body[start+len(open):end], "\n"), true
}
