package eventdb

import "time"

// InsertEvent records one operational event. A no-op when the journal has
// not been initialized, so callers never need to branch on availability.
func InsertEvent(kind EventKind, detail string) error {
	conn := getDB()
	if conn == nil {
		return nil
	}

	_, err := conn.Exec(
		"INSERT INTO events (timestamp, kind, detail) VALUES (?, ?, ?)",
		time.Now().Unix(),
		string(kind),
		detail,
	)
	if err != nil {
		return err
	}
	return nil
}

// RecentEvents returns up to limit events, newest first.
func RecentEvents(limit int) ([]Event, error) {
	conn := getDB()
	if conn == nil {
		return nil, nil
	}

	rows, err := conn.Query(
		"SELECT id, timestamp, kind, detail FROM events "+
			"ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Id, &e.Timestamp, &e.Kind, &e.Detail); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
