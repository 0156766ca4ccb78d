package blockpage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ReadsExternalAsset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block_page.html")
	body := "<html><body><h1>Site blocked by corporate policy</h1></body></html>"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	p := Load(path, nil)
	if string(p.Content()) != body {
		t.Errorf("expected external asset content, got %q", p.Content())
	}
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	p := Load(filepath.Join(t.TempDir(), "nope.html"), nil)
	if !strings.Contains(string(p.Content()), "Access Denied") {
		t.Errorf("expected fallback page, got %q", p.Content())
	}
}

func TestLoad_EmptyPathFallsBack(t *testing.T) {
	p := Load("", nil)
	if !strings.Contains(string(p.Content()), "Access Denied") {
		t.Errorf("expected fallback page, got %q", p.Content())
	}
}
