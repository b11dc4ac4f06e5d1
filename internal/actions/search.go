package actions

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/steveyegge/scout/internal/types"
)

// binarySniffLen is how much of a file is checked for NUL bytes.
const binarySniffLen = 8000

// searchContent does a case-insensitive literal line match under the scope.
// Hidden entries, binary files and files over MaxSearchFileSize are skipped.
func (e *Executor) searchContent(ctx context.Context, a types.SearchContent) (*types.SearchResults, error) {
	scope := a.Scope
	if strings.TrimSpace(scope) == "" {
		scope = "."
	}
	abs, rel, err := e.resolve(scope)
	if err != nil {
		return nil, err
	}

	res := &types.SearchResults{
		Query:   a.Query,
		Scope:   rel,
		Matches: []types.SearchMatch{},
	}
	needle := strings.ToLower(a.Query)

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != abs && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(e.root, path)
		if err != nil {
			return nil
		}
		done, err := e.searchFile(path, filepath.ToSlash(relPath), needle, res)
		if err != nil {
			e.logger.Sugar().Debugf("skipping %s: %v", relPath, err)
			return nil
		}
		if done {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", types.ErrExecution, err)
	}
	res.TotalMatches = len(res.Matches)
	return res, nil
}

// searchFile appends matches from one file. It returns true once the match
// cap is reached.
func (e *Executor) searchFile(path, relPath, needle string, res *types.SearchResults) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.Size() > MaxSearchFileSize {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, binarySniffLen)
	head, err := br.Peek(binarySniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return false, err
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return false, nil
	}
	res.FilesScanned++

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 64*1024), MaxSearchFileSize+1)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if !strings.Contains(strings.ToLower(text), needle) {
			continue
		}
		if len(res.Matches) >= MaxSearchMatches {
			res.Truncated = true
			return true, nil
		}
		res.Matches = append(res.Matches, types.SearchMatch{
			Path: relPath,
			Line: line,
			Text: strings.TrimRight(text, "\r"),
		})
	}
	return false, scanner.Err()
}
