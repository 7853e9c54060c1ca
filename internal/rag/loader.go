package rag

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"coachrag/pkg/domain"
)

// AllowedExtensions lists the file types loaded from the documents
// directory. Keep in sync with what the document listing exposes.
var AllowedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".html": true,
}

// DirectoryLoader reads documents from a local directory. Loading is
// fail-soft: an unreadable file is logged and skipped, never fatal.
type DirectoryLoader struct {
	dir    string
	logger *slog.Logger
}

// NewDirectoryLoader builds a loader rooted at dir.
func NewDirectoryLoader(dir string, logger *slog.Logger) *DirectoryLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryLoader{dir: dir, logger: logger}
}

// Load reads every supported file in the directory. A missing directory
// yields an empty result, matching a fresh deployment with no documents.
func (l *DirectoryLoader) Load() ([]domain.Document, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read documents dir: %w", err)
	}

	var docs []domain.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !AllowedExtensions[ext] {
			continue
		}
		path := filepath.Join(l.dir, name)
		var text string
		switch ext {
		case ".pdf":
			text, err = loadPDF(path)
		case ".html":
			text, err = loadHTML(path)
		default:
			text, err = loadText(path)
		}
		if err != nil {
			l.logger.Warn("skipping unreadable document", "file", name, "error", err)
			continue
		}
		text = normalizeText(text)
		if text == "" {
			l.logger.Warn("skipping empty document", "file", name)
			continue
		}
		docs = append(docs, domain.Document{
			Text:     text,
			Metadata: map[string]string{"source": name},
		})
	}
	return docs, nil
}

func loadPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	var buf strings.Builder
	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n\n")
	}
	if strings.TrimSpace(buf.String()) == "" {
		return "", fmt.Errorf("no text extracted from pdf")
	}
	return buf.String(), nil
}

func loadHTML(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return extractText(doc), nil
}

func loadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

// normalizeText strips NUL bytes and invalid UTF-8 and collapses runs of
// spaces, keeping newlines so paragraph structure survives for splitting.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}

func extractText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
			buf.WriteString(" ")
		case html.ElementNode:
			if node.Data == "script" || node.Data == "style" {
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if node.Type == html.ElementNode && (node.Data == "p" || node.Data == "br" || node.Data == "div" || node.Data == "li") {
			buf.WriteString("\n")
		}
	}
	walk(n)
	return buf.String()
}
