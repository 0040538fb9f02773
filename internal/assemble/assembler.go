// Package assemble deterministically interleaves generated images into a
// markdown draft. Pure transformation: same inputs, byte-identical output.
package assemble

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Result is the assembled document plus extracted metadata.
type Result struct {
	Markdown string   `json:"markdown"`
	Metadata Metadata `json:"metadata"`
}

// Metadata describes the assembled document.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	WordCount   int      `json:"word_count"`
	Tags        []string `json:"tags"`
}

var validFormats = map[string]bool{
	"blog":      true,
	"x_article": true,
	"linkedin":  true,
}

const descriptionMaxLen = 160

// Assemble inserts images into the draft: the first image becomes a header
// artifact before the document start, the rest go to successive top-level
// section boundaries in order. Excess images are dropped; with no images the
// draft passes through unchanged.
func Assemble(draft string, imagePaths []string, format string) (Result, error) {
	if format == "" {
		format = "blog"
	}
	if !validFormats[format] {
		return Result{}, fmt.Errorf("unknown format %q: must be one of blog, x_article, linkedin", format)
	}

	assembled := interleave(draft, imagePaths)

	return Result{
		Markdown: assembled,
		Metadata: Metadata{
			Title:       extractTitle(assembled),
			Description: extractDescription(assembled),
			WordCount:   countWords(assembled),
			Tags:        []string{},
		},
	}, nil
}

func interleave(draft string, imagePaths []string) string {
	if len(imagePaths) == 0 {
		return draft
	}

	lines := strings.Split(draft, "\n")
	rest := imagePaths[1:]

	out := make([]string, 0, len(lines)+2*len(imagePaths))
	out = append(out, imageLine(imagePaths[0], "Header image"), "")

	next := 0
	for _, line := range lines {
		// A top-level section boundary; one image per boundary until the
		// supply runs out.
		if next < len(rest) && strings.HasPrefix(line, "## ") {
			out = append(out, imageLine(rest[next], altFromPath(rest[next])), "")
			next++
		}
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

func imageLine(path, alt string) string {
	return "![" + alt + "](" + path + ")"
}

// altFromPath derives readable alt text from the image file name.
func altFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.TrimSpace(name)
}

func extractTitle(markdown string) string {
	for _, line := range strings.Split(strings.TrimSpace(markdown), "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return "Untitled Article"
}

// extractDescription returns the first content paragraph after the title,
// truncated to 160 characters.
func extractDescription(markdown string) string {
	inContent := false
	for _, line := range strings.Split(strings.TrimSpace(markdown), "\n") {
		if strings.HasPrefix(line, "# ") {
			inContent = true
			continue
		}
		trimmed := strings.TrimSpace(line)
		if !inContent || trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "![") {
			continue
		}
		if len(trimmed) > descriptionMaxLen {
			return trimmed[:descriptionMaxLen]
		}
		return trimmed
	}
	return ""
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
