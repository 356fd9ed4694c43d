package types

import (
	"fmt"
	"time"
)

// SnapshotVersion is the current snapshot format.
const SnapshotVersion = 1

// Snapshot is a full point-in-time export of the ledger tables.
type Snapshot struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Clients   []Client  `json:"clients"`
	Payments  []Payment `json:"payments"`
	Logs      []Log     `json:"logs"`
}

// Validate checks the snapshot version, that ids are unique per table, and
// that every payment and log refers to a client present in the snapshot.
func (s *Snapshot) Validate() error {
	if s == nil {
		return errorf("snapshot is nil")
	}
	if s.Version != SnapshotVersion {
		return errorf("unsupported snapshot version %d", s.Version)
	}
	clients := make(map[int64]bool, len(s.Clients))
	for _, c := range s.Clients {
		if c.ID == 0 {
			return errorf("client %q has no id", c.Name)
		}
		if clients[c.ID] {
			return errorf("duplicate client id %d", c.ID)
		}
		clients[c.ID] = true
	}
	payments := make(map[int64]bool, len(s.Payments))
	for _, p := range s.Payments {
		if payments[p.ID] {
			return errorf("duplicate payment id %d", p.ID)
		}
		payments[p.ID] = true
		if !clients[p.ClientID] {
			return errorf("payment %d references unknown client %d", p.ID, p.ClientID)
		}
	}
	logs := make(map[int64]bool, len(s.Logs))
	for _, l := range s.Logs {
		if logs[l.ID] {
			return errorf("duplicate log id %d", l.ID)
		}
		logs[l.ID] = true
		if !clients[l.ClientID] {
			return errorf("log %d references unknown client %d", l.ID, l.ClientID)
		}
	}
	return nil
}

// String returns a short summary used in log lines.
func (s *Snapshot) String() string {
	return fmt.Sprintf("snapshot %s (%d clients, %d payments, %d logs)",
		s.ID, len(s.Clients), len(s.Payments), len(s.Logs))
}
