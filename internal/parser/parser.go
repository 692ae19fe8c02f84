// Package parser extracts the fields the index stores for a note: its
// frontmatter, title and tags.
package parser

import (
	"bytes"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/starford/foldertags/internal/codec"
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Tags        []string
	Title       string
}

var md = goldmark.New()

// Parse decodes frontmatter, derives the title and collects tags from raw
// Markdown bytes. Invalid frontmatter is treated as body.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Tags:        codec.ExtractTags(string(data)),
		Title:       deriveTitle(fm, []byte(body)),
	}, nil
}

func splitFrontmatter(data []byte) (map[string]any, string) {
	var fm map[string]any
	rest, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return nil, string(data)
	}
	if len(fm) == 0 {
		fm = nil
	}
	return fm, strings.TrimLeft(string(rest), "\r\n")
}

// deriveTitle returns the frontmatter "title" if present, otherwise the
// text of the first level-one heading, otherwise an empty string.
func deriveTitle(fm map[string]any, body []byte) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	doc := md.Parser().Parse(text.NewReader(body))
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(headingText(h, body))
		return ast.WalkStop, nil
	})
	return title
}

func headingText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			continue
		}
		b.WriteString(headingText(c, source))
	}
	return b.String()
}
