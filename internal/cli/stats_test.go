package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"mindgap-tutor/internal/domain"
)

type fakeStats struct {
	stats domain.Stats
	err   error
}

func (f fakeStats) Stats(context.Context) (domain.Stats, error) {
	return f.stats, f.err
}

func TestPrintStats(t *testing.T) {
	var out bytes.Buffer
	err := printStats(context.Background(), fakeStats{stats: domain.Stats{
		WeakTopics: []domain.WeakTopic{{Topic: "fractions", Frequency: 2}},
		History:    []domain.PerformanceRecord{{Topic: "fractions", Score: 1, Total: 3, Level: "beginner", Date: "2026-10-18"}},
	}}, &out)
	if err != nil {
		t.Fatalf("print stats: %v", err)
	}
	text := out.String()
	for _, want := range []string{"fractions (missed 2 times)", "1/3", "2026-10-18", "beginner"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
}

func TestPrintStatsEmpty(t *testing.T) {
	var out bytes.Buffer
	if err := printStats(context.Background(), fakeStats{}, &out); err != nil {
		t.Fatalf("print stats: %v", err)
	}
	if !strings.Contains(out.String(), "none yet") {
		t.Fatalf("expected empty marker, got %q", out.String())
	}
}

func TestPrintStatsError(t *testing.T) {
	boom := errors.New("backend down")
	if err := printStats(context.Background(), fakeStats{err: boom}, &bytes.Buffer{}); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestPlayWithDeckFile(t *testing.T) {
	deck := t.TempDir() + "/deck.yaml"
	writeFile(t, deck, `quizzes:
  - topic: Colors
    lesson: Mixing primaries makes secondaries.
    questions:
      - question: Blue plus yellow?
        options: [green, purple]
        correct_answer: green
        explanation: Blue and yellow make green.
`)
	var out bytes.Buffer
	opts := &playOptions{topic: "colors", deck: deck}
	err := runPlay(context.Background(), t.TempDir()+"/missing.yaml", opts, strings.NewReader("1\n\n"), &out)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !strings.Contains(out.String(), "You scored 1/1 (100%).") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestPlaySampleQuizWithoutSources(t *testing.T) {
	var out bytes.Buffer
	opts := &playOptions{topic: "arithmetic"}
	err := runPlay(context.Background(), t.TempDir()+"/missing.yaml", opts, strings.NewReader("2\n\n1\n\n"), &out)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !strings.Contains(out.String(), "You scored 1/2 (50%).") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
