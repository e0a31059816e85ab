package store

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/adpulse/internal/model"
)

// ErrRunNotFound is returned when a refresh run id does not exist.
var ErrRunNotFound = errors.New("run not found")

func marshalRunDetails(run *model.RefreshRun) (sources, warnings string, err error) {
	sourcesJSON, err := json.Marshal(run.Sources)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal sources")
	}
	warningsJSON, err := json.Marshal(run.Warnings)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal warnings")
	}
	return string(sourcesJSON), string(warningsJSON), nil
}

type scannable interface {
	Scan(dest ...any) error
}

// scanRun reads one refresh run from either backend's row type.
func scanRun(row scannable) (*model.RefreshRun, error) {
	var r model.RefreshRun
	var sourcesJSON, warningsJSON, errMsg sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(&r.ID, &r.Status, &sourcesJSON, &r.MergedRows, &warningsJSON, &errMsg, &r.StartedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan run")
	}

	if sourcesJSON.Valid && sourcesJSON.String != "" {
		if err := json.Unmarshal([]byte(sourcesJSON.String), &r.Sources); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal sources")
		}
	}
	if warningsJSON.Valid && warningsJSON.String != "" {
		if err := json.Unmarshal([]byte(warningsJSON.String), &r.Warnings); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal warnings")
		}
	}
	if errMsg.Valid {
		r.Error = errMsg.String
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	return &r, nil
}
