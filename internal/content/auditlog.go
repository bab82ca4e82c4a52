package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mediaflow/internal/fileutil"
)

// Line is one analysed image in an audit record.
type Line struct {
	RelPath  string
	Tags     []string
	Duration time.Duration
}

// Record is the block appended for one analysis pass.
type Record struct {
	Started time.Time
	RunID   string
	JobSeq  int
	Source  string
	Lines   []Line
}

// AuditLog appends records to <dir>/<YYYY-MM-DD>.txt. Appends are serialized
// and each record is written with a single write call.
type AuditLog struct {
	mu  sync.Mutex
	dir string
}

func NewAuditLog(dir string) *AuditLog {
	return &AuditLog{dir: dir}
}

// PathFor returns the log file a record started at t lands in.
func (a *AuditLog) PathFor(t time.Time) string {
	return filepath.Join(a.dir, t.Format(time.DateOnly)+".txt")
}

// Append writes rec. Records without lines are skipped.
func (a *AuditLog) Append(rec Record) (string, error) {
	if len(rec.Lines) == 0 {
		return "", nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := fileutil.EnsureDir(a.dir); err != nil {
		return "", err
	}
	path := a.PathFor(rec.Started)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(render(rec)); err != nil {
		return "", fmt.Errorf("append audit log: %w", err)
	}
	return path, f.Close()
}

func render(rec Record) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "=== %s", rec.Started.Format(time.RFC3339))
	if rec.RunID != "" {
		fmt.Fprintf(&buf, " run=%s", rec.RunID)
	}
	if rec.JobSeq > 0 {
		fmt.Fprintf(&buf, " job=%d", rec.JobSeq)
	}
	if rec.Source != "" {
		fmt.Fprintf(&buf, " source=%s", rec.Source)
	}
	buf.WriteString(" ===\n")
	for _, line := range rec.Lines {
		fmt.Fprintf(&buf, "%s | %s | %s\n", line.RelPath, strings.Join(line.Tags, ", "), line.Duration.Round(time.Millisecond))
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}
