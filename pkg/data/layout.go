package data

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const indexPrefix = "index_"

// Layout describes where the price and membership files live under a data root.
//
//	<root>/<IndexDir>/index_<code>[_<label>].csv   sector and benchmark index bars
//	<root>/<ConstituentDir>/sector_<code>.csv      sector members (code,name)
//	<root>/<StockDir>/<ticker>.csv                 stock bars
//	<root>/<SectorNamesFile>                       optional code,name table
type Layout struct {
	Root            string `yaml:"root"`
	IndexDir        string `yaml:"index_dir"`
	ConstituentDir  string `yaml:"constituent_dir"`
	StockDir        string `yaml:"stock_dir"`
	SectorNamesFile string `yaml:"sector_names_file"`
}

// DefaultLayout keeps index and membership files at the root and stock bars under stocks/.
func DefaultLayout(root string) Layout {
	return Layout{
		Root:            root,
		StockDir:        "stocks",
		SectorNamesFile: "sectors.csv",
	}
}

// IndexID is the instrument id under which an index series is fetched.
func IndexID(code string) string {
	return indexPrefix + code
}

// IsIndexID reports whether id names an index series, returning its code.
func IsIndexID(id string) (string, bool) {
	if strings.HasPrefix(id, indexPrefix) {
		return strings.TrimPrefix(id, indexPrefix), true
	}
	return "", false
}

// SeriesPath resolves the bar file for an instrument id. Index files may carry a label after
// the code ("index_1001_KOSPI.csv"); the plain name wins when both exist.
func (l Layout) SeriesPath(id string) string {
	if code, ok := IsIndexID(id); ok {
		dir := filepath.Join(l.Root, l.IndexDir)
		plain := filepath.Join(dir, indexPrefix+code+".csv")
		if _, err := os.Stat(plain); err == nil {
			return plain
		}
		matches, _ := filepath.Glob(filepath.Join(dir, indexPrefix+code+"_*.csv"))
		if len(matches) > 0 {
			sort.Strings(matches)
			return matches[0]
		}
		return plain
	}
	return filepath.Join(l.Root, l.StockDir, id+".csv")
}

// ConstituentPath is the membership file of a sector.
func (l Layout) ConstituentPath(code string) string {
	return filepath.Join(l.Root, l.ConstituentDir, "sector_"+code+".csv")
}

// SectorNamesPath is the optional code,name table. Empty when not configured.
func (l Layout) SectorNamesPath() string {
	if l.SectorNamesFile == "" {
		return ""
	}
	return filepath.Join(l.Root, l.SectorNamesFile)
}

// IndexCodes discovers every index code with a bar file, sorted.
func (l Layout) IndexCodes() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.Root, l.IndexDir))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var codes []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, indexPrefix) || !strings.HasSuffix(name, ".csv") {
			continue
		}
		code := strings.TrimSuffix(strings.TrimPrefix(name, indexPrefix), ".csv")
		if i := strings.Index(code, "_"); i >= 0 {
			code = code[:i]
		}
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}
