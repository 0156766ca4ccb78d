package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/haukened/swgd/internal/swg/common/clock"
	"github.com/haukened/swgd/internal/swg/common/log"
	"github.com/haukened/swgd/internal/swg/domain"
)

func newTestClassifier(t *testing.T, gen GenerateFunc) *Gemini {
	t.Helper()
	g, err := New(Options{
		Model:    "gemini-2.5-flash",
		Logger:   log.NewNoopLogger(),
		Generate: gen,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return g
}

func TestNew_RequiresModel(t *testing.T) {
	_, err := New(Options{Generate: func(context.Context, string) (string, error) { return "", nil }})
	if err == nil {
		t.Error("expected error when model is missing")
	}
}

func TestNew_RequiresAPIKeyWithoutGenerateHook(t *testing.T) {
	_, err := New(Options{Model: "gemini-2.5-flash"})
	if err == nil {
		t.Error("expected error when api key is missing")
	}
}

func TestClassify_CleanLabel(t *testing.T) {
	g := newTestClassifier(t, func(_ context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "Domain: github.com") {
			t.Errorf("prompt missing domain, got:\n%s", prompt)
		}
		return "Software Development", nil
	})

	res, err := g.Classify(context.Background(), "github.com")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if res.Category != domain.CategorySoftwareDev {
		t.Errorf("expected %q, got %q", domain.CategorySoftwareDev, res.Category)
	}
}

func TestClassify_StripsColonPrefix(t *testing.T) {
	g := newTestClassifier(t, func(context.Context, string) (string, error) {
		return "Category: Phishing", nil
	})

	res, err := g.Classify(context.Background(), "bankofamerica-login.com")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if res.Category != domain.CategoryPhishing {
		t.Errorf("expected %q, got %q", domain.CategoryPhishing, res.Category)
	}
}

func TestClassify_OverlongLabelCoercedToUnknown(t *testing.T) {
	g := newTestClassifier(t, func(context.Context, string) (string, error) {
		return "Suspicious-because-of-xyz-very-long-explanation-exceeding-the-threshold-for-labels", nil
	})

	res, err := g.Classify(context.Background(), "weird.xyz")
	if err != nil {
		t.Fatalf("overlong output must classify as Unknown, not fail: %v", err)
	}
	if res.Category != domain.CategoryUnknown {
		t.Errorf("expected %q, got %q", domain.CategoryUnknown, res.Category)
	}
}

func TestClassify_NonVocabularyLabelCoercedToUnknown(t *testing.T) {
	g := newTestClassifier(t, func(context.Context, string) (string, error) {
		return "Gambling", nil
	})

	res, err := g.Classify(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if res.Category != domain.CategoryUnknown {
		t.Errorf("expected %q, got %q", domain.CategoryUnknown, res.Category)
	}
}

func TestClassify_CaseInsensitiveVocabularyMatch(t *testing.T) {
	g := newTestClassifier(t, func(context.Context, string) (string, error) {
		return "search engine", nil
	})

	res, err := g.Classify(context.Background(), "google.com")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if res.Category != domain.CategorySearchEngine {
		t.Errorf("expected %q, got %q", domain.CategorySearchEngine, res.Category)
	}
}

func TestClassify_BackendErrorIsUnavailable(t *testing.T) {
	g := newTestClassifier(t, func(context.Context, string) (string, error) {
		return "", errors.New("rpc deadline exceeded")
	})

	_, err := g.Classify(context.Background(), "example.com")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestClassify_EmptyOutputIsUnavailable(t *testing.T) {
	g := newTestClassifier(t, func(context.Context, string) (string, error) {
		return "   \n", nil
	})

	_, err := g.Classify(context.Background(), "example.com")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for empty output, got %v", err)
	}
}

func TestClassify_AppliesDeadline(t *testing.T) {
	g := newTestClassifier(t, func(ctx context.Context, _ string) (string, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a deadline on the classification context")
		}
		return "News", nil
	})
	if _, err := g.Classify(context.Background(), "nytimes.com"); err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
}

func TestClassify_ReportsLatency(t *testing.T) {
	clk := &clock.MockClock{CurrentTime: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)}
	g, err := New(Options{
		Model:  "gemini-2.5-flash",
		Logger: log.NewNoopLogger(),
		Clock:  clk,
		Generate: func(context.Context, string) (string, error) {
			clk.Advance(750 * time.Millisecond)
			return "News", nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := g.Classify(context.Background(), "nytimes.com")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if res.Latency != 750*time.Millisecond {
		t.Errorf("expected 750ms latency, got %v", res.Latency)
	}
}

func TestBuildPrompt_ListsFullVocabulary(t *testing.T) {
	prompt := buildPrompt("example.com")
	for _, c := range domain.Categories() {
		if !strings.Contains(prompt, "- "+string(c)) {
			t.Errorf("prompt missing vocabulary entry %q", c)
		}
	}
	if !strings.Contains(prompt, "If still unsure, return 'Unknown'.") {
		t.Error("prompt missing Unknown guidance")
	}
}
