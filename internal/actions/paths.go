package actions

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/steveyegge/scout/internal/types"
)

// resolve maps a user-supplied path onto the filesystem and rejects anything
// that lands outside the workspace root, including through symlinks. The
// returned relative path uses forward slashes.
func (e *Executor) resolve(userPath string) (abs, rel string, err error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(userPath)))
	if clean == "." {
		return e.root, ".", nil
	}

	joined := clean
	if !filepath.IsAbs(clean) {
		joined = filepath.Join(e.root, clean)
	}
	// Lexical check first so a missing path outside the root still reports
	// containment rather than not-found.
	if !hasPathPrefix(joined, e.root) {
		return "", "", fmt.Errorf("%w: %s", types.ErrPathOutsideWorkspace, userPath)
	}

	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("%w: %s does not exist", types.ErrExecution, userPath)
		}
		return "", "", fmt.Errorf("%w: failed to resolve %s: %v", types.ErrExecution, userPath, err)
	}
	if !hasPathPrefix(resolved, e.root) {
		return "", "", fmt.Errorf("%w: %s", types.ErrPathOutsideWorkspace, userPath)
	}

	r, err := filepath.Rel(e.root, resolved)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", types.ErrExecution, err)
	}
	return resolved, filepath.ToSlash(r), nil
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
