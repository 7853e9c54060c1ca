package rag

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDirectoryLoaderReadsSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "la récupération est essentielle après l'effort")
	writeFile(t, dir, "page.html", "<html><body><p>hydratation pendant la course</p><script>ignored()</script></body></html>")
	writeFile(t, dir, "ignored.csv", "a,b,c")

	loader := NewDirectoryLoader(dir, nil)
	docs, err := loader.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	sources := map[string]string{}
	for _, doc := range docs {
		sources[doc.Metadata["source"]] = doc.Text
	}
	if _, ok := sources["notes.txt"]; !ok {
		t.Fatalf("expected notes.txt to be loaded, got %v", sources)
	}
	htmlText, ok := sources["page.html"]
	if !ok {
		t.Fatalf("expected page.html to be loaded")
	}
	if want := "hydratation pendant la course"; !strings.Contains(htmlText, want) {
		t.Fatalf("expected html text %q in %q", want, htmlText)
	}
	if strings.Contains(htmlText, "ignored()") {
		t.Fatalf("expected script content to be stripped, got %q", htmlText)
	}
}

func TestDirectoryLoaderMissingDir(t *testing.T) {
	loader := NewDirectoryLoader(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	docs, err := loader.Load()
	if err != nil {
		t.Fatalf("expected missing dir to be tolerated, got %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestDirectoryLoaderSkipsBrokenPDF(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.pdf", "this is not a pdf")
	writeFile(t, dir, "ok.txt", "un document valide")

	loader := NewDirectoryLoader(dir, nil)
	docs, err := loader.Load()
	if err != nil {
		t.Fatalf("expected broken pdf to be skipped, got %v", err)
	}
	if len(docs) != 1 || docs[0].Metadata["source"] != "ok.txt" {
		t.Fatalf("expected only ok.txt to survive, got %v", docs)
	}
}

func TestDirectoryLoaderSkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", "   \n ")
	loader := NewDirectoryLoader(dir, nil)
	docs, err := loader.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty file to be skipped, got %d docs", len(docs))
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
