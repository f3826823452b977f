package ignore

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// Matcher decides which paths under a scan root are excluded from indexing.
// Nothing is excluded unless patterns, defaults or .gitignore handling are configured.
// A nil *Matcher excludes nothing.
type Matcher struct {
	mu        sync.RWMutex
	rootDir   string
	patterns  []string
	gitIgnore gitignore.GitIgnore
	useGit    bool
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir   string
	Patterns  []string // doublestar globs, matched against the root-relative path and the base name
	Defaults  bool     // also apply DefaultPatterns
	GitIgnore bool     // honour RootDir/.gitignore
}

// NewMatcher creates a matcher for one scan root.
func NewMatcher(options MatcherOptions) *Matcher {
	matcher := &Matcher{
		rootDir: options.RootDir,
		useGit:  options.GitIgnore,
	}
	for _, pattern := range options.Patterns {
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		if pattern != "" && doublestar.ValidatePattern(pattern) {
			matcher.patterns = append(matcher.patterns, pattern)
		}
	}
	if options.Defaults {
		matcher.patterns = append(matcher.patterns, DefaultPatterns...)
	}
	if matcher.useGit {
		matcher.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".gitignore"), options.RootDir)
	}
	return matcher
}

// Empty reports whether the matcher can never exclude anything.
func (m *Matcher) Empty() bool {
	if m == nil {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.patterns) == 0 && m.gitIgnore == nil
}

// ShouldIgnore reports whether absolutePath is excluded. isDir tells gitignore rules
// whether a trailing-slash pattern applies.
func (m *Matcher) ShouldIgnore(absolutePath string, isDir bool) bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil || strings.HasPrefix(relativePath, "..") {
		return false
	}
	relativePath = filepath.ToSlash(relativePath)
	if relativePath == "." {
		return false
	}

	if m.matchesPatterns(relativePath) {
		return true
	}

	if m.gitIgnore != nil {
		match := m.gitIgnore.Relative(relativePath, isDir)
		if match != nil && match.Ignore() {
			return true
		}
	}
	return false
}

// matchesPatterns checks the root-relative path and its base name against every glob.
func (m *Matcher) matchesPatterns(relativePath string) bool {
	baseName := path.Base(relativePath)
	for _, pattern := range m.patterns {
		if matched, _ := doublestar.Match(pattern, relativePath); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, baseName); matched {
			return true
		}
	}
	return false
}

// Reload re-reads the root's .gitignore. Used when the watcher sees it change.
func (m *Matcher) Reload() {
	if m == nil || !m.useGit {
		return
	}
	newGitIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ".gitignore"), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gitIgnore = newGitIgnore
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses io.Reader approach to ensure the file handle is properly closed on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
