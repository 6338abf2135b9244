package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/paramfn/internal/ctxlog"
	"github.com/specialistvlad/paramfn/internal/fsutil"
	"github.com/specialistvlad/paramfn/internal/model"
)

// Open creates dir if needed and loads every stored definition in it. A file
// that cannot be decoded fails the whole load. The file name, not the name
// inside the document, is the key the definition is stored under.
func Open(ctx context.Context, dir string) (*Registry, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Opening function registry.", "dir", dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create functions directory %s: %w", dir, err)
	}

	filePaths, err := fsutil.FindFilesByExtension(dir, fileExtension)
	if err != nil {
		return nil, fmt.Errorf("failed to list functions directory %s: %w", dir, err)
	}

	reg := &Registry{
		dir:  dir,
		defs: make(map[string]*model.FunctionDefinition, len(filePaths)),
	}

	for _, filePath := range filePaths {
		def, err := decodeFile(filePath)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(filePath), fileExtension)
		if def.Name() != name {
			logger.Warn("Stored function name differs from its file name, using the file name.", "file", filePath, "name", def.Name())
		}
		reg.defs[name] = def
		logger.Debug("Loaded function definition.", "name", name, "file", filePath)
	}

	logger.Info("Function registry loaded.", "dir", dir, "functions", len(reg.defs))
	return reg, nil
}

func decodeFile(path string) (*model.FunctionDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read function file %s: %w", path, err)
	}
	var def model.FunctionDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to decode function file %s: %w", path, err)
	}
	return &def, nil
}
