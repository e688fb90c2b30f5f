package tilesheet

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Renames is the per-run name substitution table. A name mapped to the empty
// string means the source file is ignored entirely.
type Renames map[string]string

// LoadRenames reads a renames file of "old=new" lines. A missing file yields
// an empty table.
func LoadRenames(path string) (Renames, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Renames{}, nil
		}
		return nil, err
	}
	defer f.Close()
	r, err := ParseRenames(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ParseRenames parses "old=new" lines. Blank lines are skipped; a line
// without '=' is malformed.
func ParseRenames(r io.Reader) (Renames, error) {
	renames := Renames{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		old, repl, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected old=new, got %q", line, text)
		}
		renames[strings.TrimSpace(old)] = strings.TrimSpace(repl)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return renames, nil
}

// Resolve maps a file stem through the table. keep is false when the file is
// marked ignored.
func (r Renames) Resolve(name string) (resolved string, keep bool) {
	mapped, ok := r[name]
	if !ok {
		return name, true
	}
	if mapped == "" {
		return "", false
	}
	return mapped, true
}
