package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/atlasai/tripflow/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSession scans one travel_sessions row into a Session, unmarshaling
// the state blob.
func scanSession(row rowScanner) (*models.Session, error) {
	var sess models.Session
	var stateJSON string
	var step string
	var origin, destination sql.NullString
	var durationDays sql.NullInt64

	err := row.Scan(&sess.SessionID, &stateJSON, &step, &origin, &destination,
		&durationDays, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, err
	}

	sess.CurrentStep = models.Step(step)
	sess.Origin = origin.String
	sess.Destination = destination.String
	sess.DurationDays = int(durationDays.Int64)

	if stateJSON != "" {
		var state models.TripState
		if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
		}
		sess.State = &state
	}
	return &sess, nil
}

// collectSummaries drains a result set of travel_sessions rows into
// listing summaries.
func collectSummaries(rows *sql.Rows) ([]models.SessionSummary, error) {
	var summaries []models.SessionSummary
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		summaries = append(summaries, summarize(*sess))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	return summaries, nil
}
