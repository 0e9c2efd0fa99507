package search

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// defaultIgnorePatterns are always applied when ignore filtering is enabled.
var defaultIgnorePatterns = []string{
	".git",
	".hg",
	".svn",
}

// IgnoreFilter matches paths under a root against .gitignore patterns.
type IgnoreFilter struct {
	root     string
	patterns *gitignore.GitIgnore
}

// NewIgnoreFilter compiles the patterns of root/.gitignore, if present, together with
// the default version control directory patterns. A .gitignore that cannot be read is
// logged and only the default patterns apply.
func NewIgnoreFilter(root string) *IgnoreFilter {
	var patterns []string

	gitignorePath := filepath.Join(root, ".gitignore")
	content, err := os.ReadFile(gitignorePath)
	switch {
	case err == nil:
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, line)
		}
	case !os.IsNotExist(err):
		log.Printf("Ignoring unreadable %s: %v", gitignorePath, err)
	}

	patterns = append(patterns, defaultIgnorePatterns...)

	return &IgnoreFilter{
		root:     root,
		patterns: gitignore.CompileIgnoreLines(patterns...),
	}
}

// ShouldIgnore reports whether path, which must lie under the filter's root, is ignored.
func (f *IgnoreFilter) ShouldIgnore(path string, isDir bool) bool {
	if f == nil || f.patterns == nil {
		return false
	}

	rel, err := filepath.Rel(f.root, path)
	if err != nil || rel == "." {
		return false
	}

	rel = filepath.ToSlash(rel)
	if isDir && f.patterns.MatchesPath(rel+"/") {
		return true
	}
	return f.patterns.MatchesPath(rel)
}
