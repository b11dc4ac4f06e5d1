// Package workspace builds a static profile of the repository being explored
// so the oracle starts with more than a bare goal.
package workspace

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// maxProfileFiles bounds the walk on very large repositories.
const maxProfileFiles = 20000

// LanguageCount is the number of files of one language.
type LanguageCount struct {
	Language string `json:"language"`
	Files    int    `json:"files"`
}

// Profile summarizes a workspace.
type Profile struct {
	Root       string          `json:"root"`
	TotalFiles int             `json:"totalFiles"`
	TotalLines int             `json:"totalLines"`
	Languages  []LanguageCount `json:"languages"`
	TopLevel   []string        `json:"topLevel"`
	GoModule   *GoModule       `json:"goModule,omitempty"`
	Partial    bool            `json:"partial,omitempty"`
}

// Builder scans a workspace root.
type Builder struct {
	Root         string
	ExcludePaths []string
	Logger       *zap.Logger
}

// NewBuilder creates a profile builder with the default exclusions.
func NewBuilder(root string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		Root: root,
		ExcludePaths: []string{
			"vendor/",
			"node_modules/",
			"*.pb.go",
			"*_generated.go",
		},
		Logger: logger,
	}
}

// Build walks the workspace and returns its profile. Hidden entries are
// never counted.
func (b *Builder) Build(ctx context.Context) (*Profile, error) {
	info, err := os.Stat(b.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", b.Root)
	}

	p := &Profile{Root: b.Root}
	counts := make(map[string]int)

	err = filepath.WalkDir(b.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped rather than failing the profile
			if d != nil && d.IsDir() && path != b.Root {
				return filepath.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		relPath, err := filepath.Rel(b.Root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if b.shouldExclude(relPath, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if relPath != "." && !strings.Contains(relPath, "/") {
			name := relPath
			if d.IsDir() {
				name += "/"
			}
			p.TopLevel = append(p.TopLevel, name)
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		p.TotalFiles++
		if p.TotalFiles >= maxProfileFiles {
			p.Partial = true
			return fs.SkipAll
		}
		if lang := Language(path); lang != "" {
			counts[lang]++
		}
		if IsText(path) {
			if lines, err := countLines(path); err == nil {
				p.TotalLines += lines
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk workspace: %w", err)
	}

	for lang, n := range counts {
		p.Languages = append(p.Languages, LanguageCount{Language: lang, Files: n})
	}
	sort.Slice(p.Languages, func(i, j int) bool {
		if p.Languages[i].Files != p.Languages[j].Files {
			return p.Languages[i].Files > p.Languages[j].Files
		}
		return p.Languages[i].Language < p.Languages[j].Language
	})

	mod, err := LoadGoModule(b.Root)
	if err != nil {
		// A broken go.mod is itself useful information; keep the profile
		b.Logger.Warn("failed to load go.mod", zap.Error(err))
	}
	p.GoModule = mod

	b.Logger.Debug("workspace profiled",
		zap.String("root", b.Root),
		zap.Int("files", p.TotalFiles),
		zap.Int("languages", len(p.Languages)),
		zap.Bool("partial", p.Partial))
	return p, nil
}

// Summary renders the profile as a compact text block for prompts.
func (p *Profile) Summary() string {
	if p == nil {
		return "(no workspace profile)"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Files: %d (%d lines of text)", p.TotalFiles, p.TotalLines)
	if p.Partial {
		sb.WriteString(", scan truncated")
	}
	sb.WriteString("\n")
	if len(p.Languages) > 0 {
		parts := make([]string, 0, len(p.Languages))
		for i, l := range p.Languages {
			if i == 8 {
				break
			}
			parts = append(parts, fmt.Sprintf("%s %d", l.Language, l.Files))
		}
		fmt.Fprintf(&sb, "Languages: %s\n", strings.Join(parts, ", "))
	}
	if len(p.TopLevel) > 0 {
		fmt.Fprintf(&sb, "Top level: %s\n", strings.Join(p.TopLevel, " "))
	}
	if m := p.GoModule; m != nil {
		fmt.Fprintf(&sb, "Go module: %s", m.Path)
		if m.GoVersion != "" {
			fmt.Fprintf(&sb, " (go %s)", m.GoVersion)
		}
		sb.WriteString("\n")
		direct := m.Direct()
		if len(direct) > 0 {
			deps := make([]string, 0, len(direct))
			for _, d := range direct {
				deps = append(deps, d.Path+"@"+d.Version)
			}
			fmt.Fprintf(&sb, "Direct dependencies: %s\n", strings.Join(deps, ", "))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// shouldExclude checks if a path should be excluded from the profile.
func (b *Builder) shouldExclude(relPath string, d fs.DirEntry) bool {
	if relPath == "." {
		return false
	}
	if strings.HasPrefix(filepath.Base(relPath), ".") {
		return true
	}
	for _, pattern := range b.ExcludePaths {
		if matchesPattern(relPath, pattern, d.IsDir()) {
			return true
		}
	}
	return false
}

// matchesPattern checks if a path matches an exclude pattern.
func matchesPattern(path, pattern string, isDir bool) bool {
	if strings.HasSuffix(pattern, "/") {
		dir := strings.TrimSuffix(pattern, "/")
		if isDir && path == dir {
			return true
		}
		return strings.HasPrefix(path, pattern) || strings.Contains(path, "/"+pattern)
	}
	if strings.Contains(pattern, "*") {
		matched, _ := filepath.Match(pattern, filepath.Base(path))
		return matched
	}
	return path == pattern || strings.HasPrefix(path, pattern+"/")
}

func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return CountLines(data), nil
}

// CountLines counts newline-terminated lines, plus a final unterminated one.
func CountLines(data []byte) int {
	lines := bytes.Count(data, []byte{'\n'})
	if len(data) > 0 && data[len(data)-1] != '\n' {
		lines++
	}
	return lines
}
