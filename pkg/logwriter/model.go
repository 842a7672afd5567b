package logwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
)

const (
	// Daily file name: <YYYY_MM_DD> + fileSuffix. The prefix layout doubles
	// as the rotation key: a new prefix means a new file.
	datePrefixLayout = "2006_01_02"
	fileSuffix       = "_weather_station_data.csv"

	// Filesystem pointers kept for external tooling (sync agents, tail -f).
	currentLinkName  = "current_weather_data_logfile.csv"
	previousLinkName = "previous_weather_data_logfile.csv"
)

// WriteError wraps a storage failure during append. The reading was not
// durably written; the caller decides whether to retry or drop.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("log write to %s failed: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// DataLogger owns the active day's CSV file and the current/previous
// pointer files. Appends rotate transparently at a date boundary.
type DataLogger struct {
	mu      sync.Mutex
	logDir  string
	doFlush bool // fsync every append; costs throughput, survives crashes

	fd     *os.File
	w      *csv.Writer
	prefix string // date prefix of the open file

	currentPath  string
	previousPath string

	rotationCnt int
	linkErrCnt  int
}
