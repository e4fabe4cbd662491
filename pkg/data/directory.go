package data

import (
	"os"
	"sync"

	"github.com/ducminhle1904/sector-rotation/internal/errors"
)

// Directory is an in-memory SectorDirectory
type Directory struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewDirectory creates a directory from a code to name map
func NewDirectory(names map[string]string) *Directory {
	d := &Directory{names: make(map[string]string, len(names))}
	for code, name := range names {
		d.names[code] = name
	}
	return d
}

// LoadDirectory reads a code,name table. An empty path or a missing file yields an empty
// directory, every lookup then uses the fallback name.
func LoadDirectory(path string) (*Directory, error) {
	d := NewDirectory(nil)
	if path == "" {
		return d, nil
	}
	rows, err := readCodeNameCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, errors.Wrap(err, errors.KindDataUnavailable, "data", "load_directory")
	}
	for _, row := range rows {
		d.names[row[0]] = row[1]
	}
	return d, nil
}

// SectorName returns the display name of code, or "sector <code>" when unknown.
func (d *Directory) SectorName(code string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if name, ok := d.names[code]; ok && name != "" {
		return name
	}
	return "sector " + code
}

// Set registers or replaces a name
func (d *Directory) Set(code, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[code] = name
}

// Size returns the number of known codes
func (d *Directory) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.names)
}
