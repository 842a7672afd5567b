package logwriter

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/windlab/weather_station/pkg/eventdb"
	"github.com/windlab/weather_station/pkg/reading"
)

// NewDataLogger opens the log directory and today's file. A failure here is
// the unrecoverable log-directory case; callers should treat it as fatal.
func NewDataLogger(logDir string, doFlush bool) (*DataLogger, error) {
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("could not create log directory %s: %w", logDir, err)
		}
	}

	l := &DataLogger{
		logDir:  logDir,
		doFlush: doFlush,
	}
	if err := l.openLogfileAt(time.Now()); err != nil {
		return nil, err
	}
	return l, nil
}

// Append writes one CSV row to the file matching the reading's date,
// rotating first if the date changed. Safe for concurrent use, though by
// construction only one acquisition loop calls it at a time.
func (l *DataLogger) Append(r *reading.Reading) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prefix := r.TNow.Format(datePrefixLayout)
	if l.fd == nil || prefix != l.prefix {
		if err := l.rotateLocked(r.TNow); err != nil {
			return err
		}
	}

	l.w.Write(r.CSVRow())
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		// csv.Writer latches the first error; replace it so a retry of the
		// same row is possible once the underlying condition clears.
		l.w = csv.NewWriter(l.fd)
		return &WriteError{Path: l.currentPath, Err: err}
	}

	if l.doFlush {
		if err := l.fd.Sync(); err != nil {
			return &WriteError{Path: l.currentPath, Err: err}
		}
	}
	return nil
}

// CurrentFile returns the path of the actively written log file.
func (l *DataLogger) CurrentFile() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentPath
}

// PreviousFile returns the path of the second-newest log file ever opened,
// or "" before the first rotation.
func (l *DataLogger) PreviousFile() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.previousPath
}

// Close flushes and releases the current file.
func (l *DataLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}

func (l *DataLogger) closeLocked() error {
	if l.fd == nil {
		return nil
	}
	l.w.Flush()
	werr := l.w.Error()
	if err := l.fd.Sync(); err != nil && werr == nil {
		werr = err
	}
	if err := l.fd.Close(); err != nil && werr == nil {
		werr = err
	}
	l.fd = nil
	l.w = nil
	return werr
}

func (l *DataLogger) rotateLocked(t time.Time) error {
	if l.fd != nil {
		old := l.currentPath
		if err := l.closeLocked(); err != nil {
			log.Printf("Error closing %s during rotation: %v", old, err)
		}
		l.rotationCnt++
		eventdb.InsertEvent(eventdb.EventRotation,
			fmt.Sprintf("closed %s (rotation %d)", old, l.rotationCnt))
	}
	return l.openLogfileAt(t)
}

func (l *DataLogger) openLogfileAt(t time.Time) error {
	prefix := t.Format(datePrefixLayout)
	path := filepath.Join(l.logDir, prefix+fileSuffix)

	// Check if file exists (for resuming logging)
	_, statErr := os.Stat(path)
	existed := statErr == nil

	fd, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	l.fd = fd
	l.w = csv.NewWriter(fd)
	l.prefix = prefix

	// Header row only for brand-new files; a restart on the same day
	// resumes the existing file without repeating it.
	if !existed {
		l.w.Write(reading.Fieldnames)
		l.w.Flush()
		if err := l.w.Error(); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}

	l.updatePointersLocked(path)
	log.Printf("Logging data to %s", path)
	return nil
}

// updatePointersLocked maintains the current/previous filesystem pointers.
// Pointer failures are counted and logged but never fail the append; the
// data file itself is the source of truth.
func (l *DataLogger) updatePointersLocked(path string) {
	curLink := filepath.Join(l.logDir, currentLinkName)
	prevLink := filepath.Join(l.logDir, previousLinkName)

	if prev, err := os.Readlink(curLink); err == nil && prev != path {
		l.previousPath = prev
	}

	if err := os.Remove(prevLink); err != nil && !os.IsNotExist(err) {
		l.linkErrCnt++
		log.Printf("Warning: err_cnt=%d, could not remove %s: %v", l.linkErrCnt, prevLink, err)
	}

	if _, err := os.Lstat(curLink); err == nil {
		if err := os.Rename(curLink, prevLink); err != nil {
			l.linkErrCnt++
			log.Printf("Warning: err_cnt=%d, could not rename %s to %s: %v",
				l.linkErrCnt, curLink, prevLink, err)
		}
	}

	if err := os.Symlink(path, curLink); err != nil {
		l.linkErrCnt++
		log.Printf("Warning: err_cnt=%d, symbolic link failed, %s -> %s: %v",
			l.linkErrCnt, path, curLink, err)
	}

	l.currentPath = path
}
