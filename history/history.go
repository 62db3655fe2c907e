// Package history keeps the transcript journal on disk and a short ring of
// recent entries in memory.
package history

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	FileName = "voiceptt_transcriptions.txt"

	// RingSize is how many entries stay in memory.
	RingSize = 10

	lineTimeFormat  = "2006-01-02 15:04:05"
	localTimeFormat = "15:04:05"
	fullTimeFormat  = "2006-01-02T15:04:05"
	delimiter       = " | "
)

type Entry struct {
	Text           string
	TimestampLocal string
	TimestampFull  string
}

func newEntry(text string, ts time.Time) Entry {
	return Entry{
		Text:           text,
		TimestampLocal: ts.Format(localTimeFormat),
		TimestampFull:  ts.Format(fullTimeFormat),
	}
}

type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("history: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type Log struct {
	path string
	now  func() time.Time

	mu   sync.Mutex
	ring []Entry
}

// Open binds the log to path and primes the ring from the journal. A missing
// journal is not an error.
func Open(path string) (*Log, error) {
	l := &Log{path: path, now: time.Now}
	if _, err := l.LoadRecent(RingSize); err != nil {
		return l, err
	}
	return l, nil
}

func (l *Log) Path() string { return l.path }

// Append journals text and pushes it onto the ring. Blank text is ignored and
// reported with ok=false. A journal write failure still updates the ring.
func (l *Log) Append(text string) (Entry, bool, error) {
	if strings.TrimSpace(text) == "" {
		return Entry{}, false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	entry := newEntry(text, ts)

	var writeErr error
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		writeErr = &PersistenceError{Op: "open", Path: l.path, Err: err}
	} else {
		_, err = f.WriteString(ts.Format(lineTimeFormat) + delimiter + text + "\n")
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			writeErr = &PersistenceError{Op: "append", Path: l.path, Err: err}
		}
	}

	l.ring = append(l.ring, entry)
	if len(l.ring) > RingSize {
		l.ring = append([]Entry(nil), l.ring[len(l.ring)-RingSize:]...)
	}

	return entry, true, writeErr
}

// LoadRecent parses the journal and resets the ring to the last n valid
// entries, oldest first. Lines that do not parse are skipped.
func (l *Log) LoadRecent(n int) ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.setRing(nil)
			return nil, nil
		}
		return nil, &PersistenceError{Op: "read", Path: l.path, Err: err}
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		entry, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		entries = append(entries, entry)
		if len(entries) > n {
			entries = entries[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &PersistenceError{Op: "read", Path: l.path, Err: err}
	}

	if len(entries) > RingSize {
		entries = entries[len(entries)-RingSize:]
	}
	entries = append([]Entry(nil), entries...)
	l.setRing(entries)
	return l.Recent(n), nil
}

func parseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Entry{}, false
	}
	stamp, text, ok := strings.Cut(line, delimiter)
	if !ok || strings.TrimSpace(text) == "" {
		return Entry{}, false
	}
	ts, err := time.ParseInLocation(lineTimeFormat, stamp, time.Local)
	if err != nil {
		return Entry{}, false
	}
	return newEntry(text, ts), true
}

func (l *Log) setRing(entries []Entry) {
	l.mu.Lock()
	l.ring = entries
	l.mu.Unlock()
}

// Clear truncates the journal and empties the ring. Callers confirm with the
// user first.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.WriteFile(l.path, nil, 0644); err != nil {
		return &PersistenceError{Op: "clear", Path: l.path, Err: err}
	}
	l.ring = nil
	return nil
}

// Recent returns a copy of the last k entries in chronological order. Both
// the displayed list and copy-by-index resolve through it.
func (l *Log) Recent(k int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if k > len(l.ring) {
		k = len(l.ring)
	}
	if k <= 0 {
		return nil
	}
	out := make([]Entry, k)
	copy(out, l.ring[len(l.ring)-k:])
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ring)
}
