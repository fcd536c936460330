package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BeaconState is the liveness of a dev server as seen from its beacon file.
type BeaconState string

const (
	BeaconRunning BeaconState = "running"
	BeaconStale   BeaconState = "stale"
	BeaconAbsent  BeaconState = "absent"
)

// BeaconRecord is what a running dev server writes next to the config.
type BeaconRecord struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Users     int       `json:"users"`
	Tasks     int       `json:"tasks"`
}

// Stats counts the users and tasks held by the store.
func (s *Store) Stats() (users, tasks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), len(s.tasks)
}

// RunBeacon rewrites the beacon file at path every interval until ctx is
// done, then removes it.
func (s *Server) RunBeacon(ctx context.Context, path string, interval time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create beacon dir: %w", err)
	}
	defer os.Remove(path)

	started := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		users, tasks := s.store.Stats()
		rec := BeaconRecord{
			PID:       os.Getpid(),
			Addr:      s.httpServer.Addr,
			StartedAt: started,
			UpdatedAt: time.Now(),
			Users:     users,
			Tasks:     tasks,
		}
		if err := writeBeacon(path, rec); err != nil {
			s.log.Warn("write beacon", "path", path, "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func writeBeacon(path string, rec BeaconRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadBeacon reports whether a dev server is running. A record older than
// maxAge is stale.
func ReadBeacon(path string, maxAge time.Duration) (BeaconState, *BeaconRecord, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return BeaconAbsent, nil, nil
	}
	if err != nil {
		return BeaconAbsent, nil, fmt.Errorf("read beacon: %w", err)
	}
	var rec BeaconRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return BeaconAbsent, nil, fmt.Errorf("decode beacon: %w", err)
	}
	if time.Since(rec.UpdatedAt) > maxAge {
		return BeaconStale, &rec, nil
	}
	return BeaconRunning, &rec, nil
}
