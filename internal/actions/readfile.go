package actions

import (
	"fmt"
	"os"

	"github.com/steveyegge/scout/internal/types"
	"github.com/steveyegge/scout/internal/workspace"
)

func (e *Executor) readFile(a types.ReadFile) (*types.FileContent, error) {
	abs, rel, err := e.resolve(a.Path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat %s: %v", types.ErrExecution, a.Path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", types.ErrExecution, a.Path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", types.ErrExecution, a.Path, err)
	}
	return &types.FileContent{
		Path:      rel,
		Content:   string(data),
		LineCount: workspace.CountLines(data),
		ByteSize:  int64(len(data)),
	}, nil
}
