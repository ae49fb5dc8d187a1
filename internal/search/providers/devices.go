// internal/search/providers/devices.go
package providers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"query-orchestrator/internal/common/database"
	"query-orchestrator/internal/common/errors"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

// DeviceRegistry resolves device-control intents against the smart-home
// device table. It answers "which devices match" with their current state;
// actuation happens downstream of the pipeline.
type DeviceRegistry struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewDeviceRegistry(db *database.PostgresClient, log logger.Logger) *DeviceRegistry {
	return &DeviceRegistry{
		db:     db,
		logger: log.With(map[string]interface{}{"provider": "devices"}),
	}
}

func (d *DeviceRegistry) ID() string { return "devices" }

func (d *DeviceRegistry) Search(ctx context.Context, cls models.IntentClassification, limit int) ([]models.SearchResult, error) {
	query := `SELECT name, room, kind, state FROM devices WHERE 1=1`
	var args []interface{}

	if room := entityStrings(cls.Entities["room"]); len(room) > 0 {
		query += fmt.Sprintf(" AND room = ANY($%d)", len(args)+1)
		args = append(args, "{"+strings.Join(room, ",")+"}")
	}
	if kind := entityStrings(cls.Entities["device"]); len(kind) > 0 {
		query += fmt.Sprintf(" AND kind = ANY($%d)", len(args)+1)
		args = append(args, "{"+strings.Join(kind, ",")+"}")
	}
	query += fmt.Sprintf(" ORDER BY room, name LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := d.db.Query(ctx, query, args...)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewProviderTimeoutError(d.ID())
		}
		return nil, errors.NewProviderUnavailableError(d.ID(), err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var name, room, kind string
		var state sql.NullString
		if err := rows.Scan(&name, &room, &kind, &state); err != nil {
			return nil, errors.NewProviderUnavailableError(d.ID(), err)
		}
		results = append(results, models.SearchResult{
			Source:     d.ID(),
			Title:      name,
			Snippet:    fmt.Sprintf("%s in %s is %s", kind, room, stateOrUnknown(state)),
			Confidence: 0.95, // registry rows are authoritative
			Metadata: map[string]interface{}{
				"room":  room,
				"kind":  kind,
				"state": stateOrUnknown(state),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewProviderUnavailableError(d.ID(), err)
	}

	d.logger.Debug("device lookup completed", map[string]interface{}{
		"matches": len(results),
	})
	return results, nil
}

func stateOrUnknown(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return "unknown"
}

// entityStrings flattens an extracted entity value, which is a string for
// one match and []string for several.
func entityStrings(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	default:
		return nil
	}
}
