package actions

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/steveyegge/scout/internal/types"
	"github.com/steveyegge/scout/internal/workspace"
)

type dirItem struct {
	abs   string
	rel   string
	depth int
}

// listDirectory walks breadth-first with an explicit worklist. Immediate
// children are depth 1; recursion stops at MaxListDepth. Only a failure on the
// requested directory itself fails the action.
func (e *Executor) listDirectory(a types.ListDirectory) (*types.DirectoryListing, error) {
	abs, rel, err := e.resolve(a.Path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat %s: %v", types.ErrExecution, a.Path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrExecution, a.Path)
	}

	listing := &types.DirectoryListing{
		Path:      rel,
		Recursive: a.Recursive,
		Entries:   []types.DirectoryEntry{},
	}

	queue := []dirItem{{abs: abs, rel: rel, depth: 0}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(item.abs)
		if err != nil {
			if item.depth == 0 {
				return nil, fmt.Errorf("%w: failed to read %s: %v", types.ErrExecution, a.Path, err)
			}
			e.logger.Sugar().Debugf("skipping unreadable directory %s: %v", item.rel, err)
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			if isHidden(name) {
				continue
			}
			depth := item.depth + 1
			entryRel := name
			if item.rel != "." {
				entryRel = path.Join(item.rel, name)
			}

			isDir := entry.IsDir()
			childAbs := filepath.Join(item.abs, name)
			descend := isDir
			if entry.Type()&os.ModeSymlink != 0 {
				isDir, childAbs, descend = e.classifySymlink(childAbs, entryRel)
			}

			if isDir {
				listing.Entries = append(listing.Entries, types.DirectoryEntry{
					Name:  name,
					Path:  entryRel,
					Type:  types.EntryDirectory,
					Depth: depth,
				})
				listing.TotalDirectories++
				if descend && a.Recursive && depth < MaxListDepth {
					queue = append(queue, dirItem{
						abs:   childAbs,
						rel:   entryRel,
						depth: depth,
					})
				}
				continue
			}

			listing.Entries = append(listing.Entries, types.DirectoryEntry{
				Name:     name,
				Path:     entryRel,
				Type:     types.EntryFile,
				Language: workspace.Language(name),
				Depth:    depth,
			})
			listing.TotalFiles++
		}
	}
	return listing, nil
}

// classifySymlink reports whether a link points at a directory and, when its
// target stays inside the workspace, the resolved path to descend into.
func (e *Executor) classifySymlink(linkAbs, rel string) (isDir bool, target string, descend bool) {
	info, err := os.Stat(linkAbs)
	if err != nil || !info.IsDir() {
		return false, linkAbs, false
	}
	resolved, _, err := e.resolve(rel)
	if err != nil {
		e.logger.Sugar().Debugf("not descending into %s: %v", rel, err)
		return true, linkAbs, false
	}
	return true, resolved, true
}
