package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ericksa/legalis/internal/extract"
)

type ToolDef struct {
	Name        string
	Description string
}

var (
	ErrUnknownTool  = errors.New("unknown tool")
	ErrOutsideBase  = errors.New("path escapes base directory")
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// unmarshalInput decodes tool arguments; empty input is treated as {}.
func unmarshalInput(input json.RawMessage, v any) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("failed to parse request: %w", err)
	}
	return nil
}

// DocumentWorker reads contract files below a base directory.
type DocumentWorker struct {
	basePath string
	maxBytes int64
}

func NewDocumentWorker(basePath string, maxBytes int64) *DocumentWorker {
	return &DocumentWorker{basePath: basePath, maxBytes: maxBytes}
}

func (w *DocumentWorker) GetTools() []ToolDef {
	return []ToolDef{
		{Name: "extract", Description: "Extract plain text from a .txt, .md, .html, .docx or .pdf contract"},
		{Name: "list", Description: "List files in a directory"},
	}
}

func (w *DocumentWorker) Execute(ctx context.Context, name string, input json.RawMessage) ([]byte, error) {
	switch strings.TrimPrefix(name, "document_") {
	case "extract":
		return w.extract(ctx, input)
	case "list":
		return w.list(ctx, input)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

type FileInfo struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	IsDir bool   `json:"is_dir"`
	Mode  string `json:"mode"`
}

func (w *DocumentWorker) list(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		Path string `json:"path"`
	}
	if err := unmarshalInput(input, &req); err != nil {
		return nil, err
	}
	absPath, err := w.resolvePath(req.Path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, err
	}
	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:  e.Name(),
			Size:  info.Size(),
			IsDir: e.IsDir(),
			Mode:  info.Mode().String(),
		})
	}
	return json.Marshal(files)
}

func (w *DocumentWorker) extract(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		Path string `json:"path"`
	}
	if err := unmarshalInput(input, &req); err != nil {
		return nil, err
	}
	text, err := w.ReadText(req.Path)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		"path":     req.Path,
		"text":     text,
		"chars":    len([]rune(text)),
		"language": extract.DetectLanguage(text),
	})
}

// ReadText loads path (relative to the base directory) and extracts its text.
func (w *DocumentWorker) ReadText(path string) (string, error) {
	if path == "" {
		return "", errors.New("path required")
	}
	absPath, err := w.resolvePath(path)
	if err != nil {
		return "", err
	}
	f, err := os.Open(absPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var r io.Reader = f
	if w.maxBytes > 0 {
		r = io.LimitReader(f, w.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if w.maxBytes > 0 && int64(len(data)) > w.maxBytes {
		return "", fmt.Errorf("%w: %s (limit %d bytes)", ErrFileTooLarge, path, w.maxBytes)
	}
	return extract.Text(absPath, data)
}

// resolvePath joins path onto the base directory and rejects anything that
// lands outside it.
func (w *DocumentWorker) resolvePath(path string) (string, error) {
	base, err := filepath.Abs(w.basePath)
	if err != nil {
		return "", err
	}
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = filepath.Clean(target)
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideBase, path)
	}
	return target, nil
}
