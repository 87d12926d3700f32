package ledger

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// FileLedger stores entries as "<digest> <filename>" lines in a text file.
type FileLedger struct {
	index
	path string
}

// OpenFile loads the ledger at path. A missing file is an empty ledger; a
// malformed line fails with ErrCorrupt.
func OpenFile(path string) (*FileLedger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, eris.New("ledger: file path is empty")
	}
	l := &FileLedger{index: newIndex(), path: path}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "ledger: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := ParseLine(line)
		if err != nil {
			return nil, eris.Wrapf(err, "%s:%d", path, lineNo)
		}
		l.add(e)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "ledger: read %s", path)
	}
	return l, nil
}

// Record appends a line and fsyncs the file before returning.
func (l *FileLedger) Record(_ context.Context, digest, file string) error {
	e := Entry{Digest: digest, File: file, RecordedAt: time.Now().UTC()}
	if !ValidDigest(digest) {
		return eris.Wrapf(ErrCorrupt, "refusing to record digest %q", digest)
	}

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "ledger: create dir %s", dir)
		}
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "ledger: open %s for append", l.path)
	}
	if _, err := f.WriteString(FormatLine(e) + "\n"); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrapf(err, "ledger: append %s", l.path)
	}
	if err := f.Sync(); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrapf(err, "ledger: sync %s", l.path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "ledger: close %s", l.path)
	}

	l.add(e)
	return nil
}

// Path returns the ledger file location.
func (l *FileLedger) Path() string { return l.path }

func (l *FileLedger) Close() error { return nil }
