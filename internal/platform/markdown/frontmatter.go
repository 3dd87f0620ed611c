// Package markdown reads and writes markdown notes carrying a yaml header.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	fence      = "---\n"
	closeFence = "\n---\n"
)

// Split separates the yaml header from the body. Notes without a header
// return a nil header and the whole content as body.
func Split(content string) ([]byte, string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, fence) {
		return nil, content, nil
	}
	rest := content[len(fence):]
	end := strings.Index(rest, closeFence)
	if end < 0 {
		return nil, "", fmt.Errorf("invalid frontmatter: missing closing fence")
	}
	return []byte(rest[:end]), strings.TrimPrefix(rest[end+len(closeFence):], "\n"), nil
}

// Decode unmarshals the header into meta and returns the body.
func Decode(content string, meta any) (string, error) {
	header, body, err := Split(content)
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(header)) == 0 {
		return body, fmt.Errorf("note has no frontmatter")
	}
	if err := yaml.Unmarshal(header, meta); err != nil {
		return "", fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	return body, nil
}

func Render(meta any, body string) (string, error) {
	header, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	var buf strings.Builder
	buf.WriteString(fence)
	buf.Write(header)
	buf.WriteString(fence)
	buf.WriteString("\n")
	buf.WriteString(strings.TrimLeft(body, "\n"))
	return buf.String(), nil
}
