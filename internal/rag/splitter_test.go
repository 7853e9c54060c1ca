package rag

import (
	"reflect"
	"strings"
	"testing"

	"coachrag/pkg/domain"
)

func TestNewSplitterRejectsBadOverlap(t *testing.T) {
	if _, err := NewSplitter(100, 100); err == nil {
		t.Fatalf("expected overlap equal to size to be rejected")
	}
	if _, err := NewSplitter(100, -1); err == nil {
		t.Fatalf("expected negative overlap to be rejected")
	}
	if _, err := NewSplitter(0, 0); err == nil {
		t.Fatalf("expected zero size to be rejected")
	}
}

func TestSplitTextRespectsParagraphs(t *testing.T) {
	s, err := NewSplitter(50, 0)
	if err != nil {
		t.Fatalf("new splitter: %v", err)
	}
	text := "first paragraph here.\n\nsecond paragraph here.\n\nthird paragraph here."
	chunks := s.SplitText(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if len([]rune(chunk)) > 50 {
			t.Fatalf("chunk exceeds size bound: %q", chunk)
		}
	}
}

func TestSplitTextDeterministic(t *testing.T) {
	s, err := NewSplitter(80, 16)
	if err != nil {
		t.Fatalf("new splitter: %v", err)
	}
	text := strings.Repeat("la course à pied demande de la régularité. ", 20)
	first := s.SplitText(text)
	second := s.SplitText(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected deterministic splitting")
	}
}

func TestSplitTextHardSplitLongWord(t *testing.T) {
	s, err := NewSplitter(10, 2)
	if err != nil {
		t.Fatalf("new splitter: %v", err)
	}
	chunks := s.SplitText(strings.Repeat("x", 35))
	if len(chunks) < 3 {
		t.Fatalf("expected unbroken text to be hard split, got %d chunks", len(chunks))
	}
	for _, chunk := range chunks {
		if len([]rune(chunk)) > 10 {
			t.Fatalf("hard split chunk exceeds size: %q", chunk)
		}
	}
}

func TestSplitTextReconstructsOriginal(t *testing.T) {
	text := "Le plan commence doucement.\n\nAugmentez le volume chaque semaine, sans dépasser dix pour cent.\nLes sorties longues se courent à allure facile.\n\n" +
		strings.Repeat("endurance fondamentale ", 30) +
		"\n\nTerminez par une semaine allégée."
	cases := []struct{ size, overlap int }{
		{50, 0},
		{50, 10},
		{80, 16},
		{30, 6},
	}
	for _, tc := range cases {
		s, err := NewSplitter(tc.size, tc.overlap)
		if err != nil {
			t.Fatalf("new splitter(%d, %d): %v", tc.size, tc.overlap, err)
		}
		chunks := s.SplitText(text)
		if len(chunks) < 2 {
			t.Fatalf("size=%d overlap=%d: expected multiple chunks, got %d", tc.size, tc.overlap, len(chunks))
		}
		var rebuilt strings.Builder
		for i, chunk := range chunks {
			runes := []rune(chunk)
			if len(runes) == 0 {
				t.Fatalf("size=%d overlap=%d: empty chunk at index %d", tc.size, tc.overlap, i)
			}
			if len(runes) > tc.size {
				t.Fatalf("size=%d overlap=%d: chunk %d has %d runes: %q", tc.size, tc.overlap, i, len(runes), chunk)
			}
			drop := 0
			if i > 0 {
				drop = tc.overlap
				prev := []rune(rebuilt.String())
				if len(prev) < drop {
					drop = len(prev)
				}
				if string(runes[:drop]) != string(prev[len(prev)-drop:]) {
					t.Fatalf("size=%d overlap=%d: chunk %d prefix does not duplicate preceding text", tc.size, tc.overlap, i)
				}
			}
			rebuilt.WriteString(string(runes[drop:]))
		}
		if rebuilt.String() != text {
			t.Fatalf("size=%d overlap=%d: de-overlapped chunks do not reconstruct the input", tc.size, tc.overlap)
		}
	}
}

func TestSplitTextEmptyInput(t *testing.T) {
	s, err := NewSplitter(100, 20)
	if err != nil {
		t.Fatalf("new splitter: %v", err)
	}
	if chunks := s.SplitText("   \n\n  "); len(chunks) != 0 {
		t.Fatalf("expected no chunks for whitespace input, got %d", len(chunks))
	}
}

func TestSplitDocumentsTagsMetadata(t *testing.T) {
	s, err := NewSplitter(30, 0)
	if err != nil {
		t.Fatalf("new splitter: %v", err)
	}
	docs := []domain.Document{
		{
			Text:     "one paragraph.\n\nanother paragraph.\n\na third one.",
			Metadata: map[string]string{"source": "guide.txt"},
		},
	}
	chunks := s.SplitDocuments(docs)
	if len(chunks) == 0 {
		t.Fatalf("expected chunks")
	}
	for i, chunk := range chunks {
		if chunk.Metadata["source"] != "guide.txt" {
			t.Fatalf("expected source metadata preserved, got %v", chunk.Metadata)
		}
		if chunk.Metadata["chunk"] == "" {
			t.Fatalf("expected chunk position in metadata at index %d", i)
		}
	}
}
