package files

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"invdash/internal/selection"
)

// FileInfo represents information about a discovered workbook
type FileInfo struct {
	Path    string                 `json:"path"`
	Name    string                 `json:"name"`
	Size    int64                  `json:"size"`
	ModTime time.Time              `json:"mod_time"`
	Key     selection.SelectionKey `json:"selection"`
	Timing  bool                   `json:"timing"`
}

// Inventory is what the data directory holds.
type Inventory struct {
	Workbooks    []FileInfo `json:"workbooks"`
	Timing       []FileInfo `json:"timing"`
	Unrecognized []string   `json:"unrecognized"`
	TotalSize    int64      `json:"total_size_bytes"`
}

// Scenarios returns the keys that have a simulation workbook.
func (inv *Inventory) Scenarios() []selection.SelectionKey {
	keys := make([]selection.SelectionKey, len(inv.Workbooks))
	for i, f := range inv.Workbooks {
		keys[i] = f.Key
	}
	return keys
}

// Discovery finds simulation workbooks under a data directory
type Discovery struct {
	basePath string
	names    map[string]selection.SelectionKey
}

// NewDiscovery creates a discovery over basePath. File names are matched
// against every vocabulary combination, so names never need splitting on
// the underscores that agents and order types contain.
func NewDiscovery(basePath string) *Discovery {
	names := make(map[string]selection.SelectionKey)
	for _, a := range selection.Agents {
		for _, o := range selection.OrderTypes {
			for _, d := range selection.Disruptions {
				for _, s := range selection.Sensitivities {
					k := selection.SelectionKey{Agent: a, OrderType: o, Disruption: d, Sensitivity: s}
					names[k.FileName()] = k
				}
			}
		}
	}
	return &Discovery{basePath: basePath, names: names}
}

// Match maps a file name to its selection key. timing reports a
// wall-clock workbook.
func (d *Discovery) Match(name string) (key selection.SelectionKey, timing bool, ok bool) {
	if k, found := d.names[name]; found {
		return k, false, true
	}
	if rest, cut := strings.CutPrefix(name, "time_taken_"); cut {
		if k, found := d.names[rest]; found {
			return k, true, true
		}
	}
	return selection.SelectionKey{}, false, false
}

// FindWorkbooks walks the data directory. Excel files that follow no known
// naming are listed as unrecognized; other files are ignored.
func (d *Discovery) FindWorkbooks(ctx context.Context) (*Inventory, error) {
	inv := &Inventory{Workbooks: []FileInfo{}, Timing: []FileInfo{}, Unrecognized: []string{}}

	err := filepath.WalkDir(d.basePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".xlsx") {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		inv.TotalSize += info.Size()

		key, timing, ok := d.Match(name)
		if !ok {
			inv.Unrecognized = append(inv.Unrecognized, path)
			return nil
		}
		f := FileInfo{Path: path, Name: name, Size: info.Size(), ModTime: info.ModTime(), Key: key, Timing: timing}
		if timing {
			inv.Timing = append(inv.Timing, f)
		} else {
			inv.Workbooks = append(inv.Workbooks, f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", d.basePath, err)
	}

	sortByName(inv.Workbooks)
	sortByName(inv.Timing)
	sort.Strings(inv.Unrecognized)
	return inv, nil
}

// GetLatestFile returns the most recently modified file
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}
	latest := files[0]
	for _, f := range files[1:] {
		if f.ModTime.After(latest.ModTime) {
			latest = f
		}
	}
	return latest, true
}

func sortByName(files []FileInfo) {
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
}
