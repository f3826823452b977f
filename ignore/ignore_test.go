package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_Matcher_EmptyIgnoresNothing(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	if !matcher.Empty() {
		t.Error("expected matcher without options to be empty")
	}
	for _, name := range []string{".git", "node_modules", "app.exe"} {
		if matcher.ShouldIgnore(filepath.Join(tmpDir, name), false) {
			t.Errorf("expected %s to be indexed without exclusions", name)
		}
	}
}

func Test_Matcher_NilIgnoresNothing(t *testing.T) {
	var matcher *Matcher
	if matcher.ShouldIgnore("/any/path", false) {
		t.Error("expected nil matcher to ignore nothing")
	}
	if !matcher.Empty() {
		t.Error("expected nil matcher to be empty")
	}
	matcher.Reload()
}

func Test_Matcher_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir, Defaults: true})

	tests := []struct {
		relPath string
		ignored bool
	}{
		{".git", true},
		{"project/.git", true},
		{"photos/.DS_Store", true},
		{"photos/holiday.jpg", false},
		{"src", false},
	}
	for _, tt := range tests {
		got := matcher.ShouldIgnore(filepath.Join(tmpDir, filepath.FromSlash(tt.relPath)), false)
		if got != tt.ignored {
			t.Errorf("ShouldIgnore(%s) = %v, want %v", tt.relPath, got, tt.ignored)
		}
	}
}

func Test_Matcher_CustomPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{
		RootDir:  tmpDir,
		Patterns: []string{"*.tmp", "cache/**", "[invalid"},
	})

	if !matcher.ShouldIgnore(filepath.Join(tmpDir, "deep", "dir", "data.tmp"), false) {
		t.Error("expected base name glob to ignore nested *.tmp")
	}
	if !matcher.ShouldIgnore(filepath.Join(tmpDir, "cache", "a", "b.bin"), false) {
		t.Error("expected cache/** to ignore files under cache")
	}
	if matcher.ShouldIgnore(filepath.Join(tmpDir, "data.txt"), false) {
		t.Error("expected data.txt to be indexed")
	}
	if matcher.ShouldIgnore(filepath.Join(tmpDir, "..", "outside.tmp"), false) {
		t.Error("expected paths outside the root to never match")
	}
}

func Test_Matcher_GitignoreIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte("*.generated.go\nsecret/\n"), 0644)

	without := NewMatcher(MatcherOptions{RootDir: tmpDir})
	if without.ShouldIgnore(filepath.Join(tmpDir, "models.generated.go"), false) {
		t.Error("expected .gitignore to be ignored unless enabled")
	}

	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir, GitIgnore: true})
	if !matcher.ShouldIgnore(filepath.Join(tmpDir, "models.generated.go"), false) {
		t.Error("expected .gitignore pattern to ignore *.generated.go")
	}
	if !matcher.ShouldIgnore(filepath.Join(tmpDir, "secret"), true) {
		t.Error("expected .gitignore to ignore the secret directory")
	}
	if matcher.ShouldIgnore(filepath.Join(tmpDir, "main.go"), false) {
		t.Error("expected normal files to NOT be ignored by .gitignore")
	}
}

func Test_Matcher_Reload(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir, GitIgnore: true})
	target := filepath.Join(tmpDir, "notes.bak")
	if matcher.ShouldIgnore(target, false) {
		t.Fatal("expected notes.bak to be indexed before .gitignore exists")
	}

	os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte("*.bak\n"), 0644)
	matcher.Reload()
	if !matcher.ShouldIgnore(target, false) {
		t.Error("expected reload to pick up the new .gitignore")
	}
}
