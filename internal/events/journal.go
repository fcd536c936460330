package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Journal appends task and session events to a JSONL file so activity
// survives the process. Fetch and notice events are not recorded.
type Journal struct {
	path string
	mu   sync.Mutex
}

// NewJournal returns a journal writing to path. The file is created on the
// first recorded event.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Path returns the journal file.
func (j *Journal) Path() string { return j.path }

// Attach records every matching event published on bus until the returned
// function is called.
func (j *Journal) Attach(bus *Bus) func() {
	return bus.Subscribe(func(e Event) {
		_ = j.Record(e)
	}, journaled...)
}

var journaled = []EventType{
	EventTaskCreated, EventTaskUpdated, EventTaskDeleted,
	EventSessionStarted, EventSessionEnded,
}

func isJournaled(t EventType) bool {
	for _, j := range journaled {
		if j == t {
			return true
		}
	}
	return false
}

// Record appends e if its type is journaled.
func (j *Journal) Record(e Event) error {
	if !isJournaled(e.Type) {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// Tail returns the last limit events of the journal, oldest first. A
// missing journal is empty; malformed lines are skipped.
func (j *Journal) Tail(limit int) ([]Event, error) {
	f, err := os.Open(j.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	rb := NewRingBuffer(max(limit, 1))
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		rb.Add(e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return rb.Get(limit), nil
}
