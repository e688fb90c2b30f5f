package tilesheet

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is the local directory layout for one tilesheet family: source
// rasters under <root>/<family>/, the renames file, the inspection lists
// regenerated each run, and the composed sheet outputs.
type Workspace struct {
	root   string
	family string
}

// NewWorkspace creates a workspace rooted at root for the named family.
func NewWorkspace(root, family string) *Workspace {
	return &Workspace{root: root, family: family}
}

// SourceDir returns the directory holding the family's source rasters.
func (w *Workspace) SourceDir() string {
	return filepath.Join(w.root, w.family)
}

// ScanSources walks the family's source directory and returns the paths of
// every PNG file, in directory-walk order. Final tile positions for new
// names depend on this order; it is not canonicalized beyond what WalkDir
// provides (lexical within each directory).
func (w *Workspace) ScanSources() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(w.SourceDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".png") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", w.SourceDir(), err)
	}
	return paths, nil
}

// Stem returns the tile name stem of a source path.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RenamesPath returns the path of the family's renames file.
func (w *Workspace) RenamesPath() string {
	return filepath.Join(w.root, w.family+" renames.txt")
}

// SheetPath returns the output path of one composed sheet raster. Layer 0
// keeps the historical flat name; higher layers append the layer index.
func (w *Workspace) SheetPath(size, layer int) string {
	if layer == 0 {
		return filepath.Join(w.root, fmt.Sprintf("Tilesheet %s %d.png", w.family, size))
	}
	return filepath.Join(w.root, fmt.Sprintf("Tilesheet %s %d %d.png", w.family, size, layer))
}

// TileListPath returns the path of the human-readable tile dump.
func (w *Workspace) TileListPath() string {
	return filepath.Join(w.root, fmt.Sprintf("Tilesheet %s.txt", w.family))
}

// ListPath returns the path of one of the transient inspection lists.
func (w *Workspace) ListPath(name string) string {
	return filepath.Join(w.root, name)
}

// WriteList replaces an inspection list with the given entries, one per
// line. An empty entries slice truncates the file, which is how the
// to-delete list is presented for editing.
func (w *Workspace) WriteList(name string, entries []string) error {
	return w.writeLines(w.ListPath(name), entries)
}

// WriteTileList writes the human-readable tile dump, one "x y z name" line
// per committed tile.
func (w *Workspace) WriteTileList(lines []string) error {
	return w.writeLines(w.TileListPath(), lines)
}

func (w *Workspace) writeLines(path string, entries []string) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	for _, e := range entries {
		fmt.Fprintln(bw, e)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadList returns an inspection list's non-blank lines. A missing list is
// empty.
func (w *Workspace) ReadList(name string) ([]string, error) {
	f, err := os.Open(w.ListPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			entries = append(entries, line)
		}
	}
	return entries, scanner.Err()
}
