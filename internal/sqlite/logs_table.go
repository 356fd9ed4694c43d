package sqlite

import (
	"github.com/mesh-intelligence/crediario/pkg/types"
)

// AddLog appends one audit entry for clientID. A zero clientID is a no-op.
// Log entries have no update or delete path; they go away only with their
// client.
func (b *Backend) AddLog(clientID int64, description string) error {
	if clientID == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}

	if err := addLog(b.db, clientID, b.timestamp(), description); err != nil {
		return b.storageErr("add log", err)
	}
	return nil
}

// GetLogsByClient returns the client's audit entries, newest first.
// A zero clientID yields an empty list.
func (b *Backend) GetLogsByClient(clientID int64) ([]types.Log, error) {
	if clientID == 0 {
		return []types.Log{}, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	logs, err := queryLogs(b.db,
		"SELECT id, clientId, data, descricao FROM logs WHERE clientId = ? ORDER BY id DESC", clientID)
	if err != nil {
		return nil, b.storageErr("list logs", err)
	}
	return logs, nil
}

func addLog(ex execer, clientID int64, date, description string) error {
	_, err := ex.Exec("INSERT INTO logs (clientId, data, descricao) VALUES (?, ?, ?)",
		clientID, date, description)
	return err
}

func queryLogs(q queryer, query string, args ...any) ([]types.Log, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []types.Log{}
	for rows.Next() {
		var l types.Log
		if err := rows.Scan(&l.ID, &l.ClientID, &l.Date, &l.Description); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
