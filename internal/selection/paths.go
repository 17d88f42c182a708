package selection

import (
	"fmt"
	"path/filepath"
)

// SelectionKey identifies one simulation workbook.
type SelectionKey struct {
	Agent       Agent       `json:"agent"`
	OrderType   OrderType   `json:"order_type"`
	Disruption  Disruption  `json:"disruption"`
	Sensitivity Sensitivity `json:"sensitivity"`
}

// FileName is the workbook's file name:
// DS1_MN1_{agent}_{order_type}_{disruption}_s{sensitivity}.xlsx
func (k SelectionKey) FileName() string {
	return fmt.Sprintf("DS1_MN1_%s_%s_%s_s%s.xlsx", k.Agent, k.OrderType, k.Disruption, k.Sensitivity)
}

// TimingFileName is the file name of the matching wall-clock workbook.
func (k SelectionKey) TimingFileName() string {
	return "time_taken_" + k.FileName()
}

func (k SelectionKey) String() string {
	return fmt.Sprintf("%s/%s/%s/s%s", k.Agent, k.OrderType, k.Disruption, k.Sensitivity)
}

// PathFor returns the workbook path under dataDir. Existence is not checked.
func PathFor(dataDir string, k SelectionKey) string {
	return filepath.Join(dataDir, k.FileName())
}

// TimingPathFor returns the timing workbook path under dataDir.
func TimingPathFor(dataDir string, k SelectionKey) string {
	return filepath.Join(dataDir, k.TimingFileName())
}
