package repo

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// IgnoreChecker determines if a path should be ignored. It always
// ignores .grit/ and .git/; further patterns come from a .gritignore
// file at the repository root.
//
// Pattern rules (a subset of gitignore): blank lines and # comments are
// skipped, a leading ! negates, a trailing / matches directories only,
// patterns containing a slash match against the full repo-relative path
// while others match any path segment, and ** matches across
// directories. Later patterns win over earlier ones.
type IgnoreChecker struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern  string
	negated  bool
	dirOnly  bool
	hasSlash bool
	regex    *regexp.Regexp // non-nil for ** patterns
}

// NewIgnoreChecker creates an IgnoreChecker for the given repository root.
func NewIgnoreChecker(repoRoot string) *IgnoreChecker {
	ic := &IgnoreChecker{
		patterns: []ignorePattern{
			{pattern: ".grit"},
			{pattern: ".git"},
		},
	}

	f, err := os.Open(filepath.Join(repoRoot, ".gritignore"))
	if err == nil {
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if p := parseIgnoreLine(scanner.Text()); p != nil {
				ic.patterns = append(ic.patterns, *p)
			}
		}
	}

	return ic
}

// parseIgnoreLine parses a single .gritignore line. Returns nil for
// blank lines and comments.
func parseIgnoreLine(line string) *ignorePattern {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	p := &ignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	line = strings.TrimPrefix(line, "/")
	p.hasSlash = strings.Contains(line, "/")
	p.pattern = line

	if strings.Contains(line, "**") {
		if re, err := regexp.Compile(globToRegex(line)); err == nil {
			p.regex = re
		}
	}
	return p
}

// globToRegex translates a ** glob into an anchored regular expression.
func globToRegex(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				b.WriteString(".*")
				i++
				// Collapse "**/" so it also matches zero directories.
				if i+1 < len(glob) && glob[i+1] == '/' {
					i++
					b.WriteString("/?")
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '.', '+', '(', ')', '|', '[', ']', '{', '}', '^', '$', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteString("$")
	return b.String()
}

// IsIgnored reports whether the repo-relative (slash-separated) path
// matches the ignore patterns. isDir handling is folded into matching:
// the path and each of its parent directories are tested, so a file
// inside an ignored directory is ignored.
func (ic *IgnoreChecker) IsIgnored(rel string) bool {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return false
	}

	ignored := false
	for _, p := range ic.patterns {
		if p.matches(rel) {
			ignored = !p.negated
		}
	}
	return ignored
}

func (p *ignorePattern) matches(rel string) bool {
	// Test the path itself and every ancestor directory, so directory
	// patterns swallow their contents.
	candidates := []string{rel}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		candidates = append(candidates, dir)
	}

	for i, cand := range candidates {
		// candidates[0] is the path itself; the rest are directories.
		isDir := i > 0
		if p.dirOnly && !isDir && cand == rel {
			continue
		}
		if p.matchOne(cand) {
			return true
		}
	}
	return false
}

func (p *ignorePattern) matchOne(cand string) bool {
	if p.regex != nil {
		return p.regex.MatchString(cand)
	}
	if p.hasSlash {
		ok, err := path.Match(p.pattern, cand)
		return err == nil && ok
	}
	// Slash-less patterns match the basename of any segment.
	ok, err := path.Match(p.pattern, path.Base(cand))
	return err == nil && ok
}
