// Package store persists computed layouts for the HTTP API: each saved
// record pairs a layout with the history window it was computed from.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/history"
	"github.com/lanegraph/lanegraph/pkg/lanes"
)

// Record is one stored layout with its provenance.
type Record struct {
	ID        string          `json:"id" bson:"_id"`
	RepoID    string          `json:"repo_id" bson:"repo_id"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
	Layout    *lanes.Layout   `json:"layout" bson:"layout"`
	Entries   []history.Entry `json:"entries,omitempty" bson:"entries,omitempty"`
}

// NewRecord builds a record with a fresh id and timestamp.
func NewRecord(repoID string, layout *lanes.Layout, entries []history.Entry) *Record {
	return &Record{
		ID:        uuid.NewString(),
		RepoID:    repoID,
		CreatedAt: time.Now().UTC(),
		Layout:    layout,
		Entries:   entries,
	}
}

// Store is the persistence interface for layout records.
type Store interface {
	// Save inserts or replaces a record by id.
	Save(ctx context.Context, rec *Record) error

	// Get returns a record by id, or an ErrCodeLayoutNotFound error.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns records for a repository, newest first, at most
	// limit entries (unbounded when limit is zero).
	List(ctx context.Context, repoID string, limit int) ([]*Record, error)

	// Delete removes a record by id, or returns ErrCodeLayoutNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

func notFound(id string) error {
	return apperrors.New(apperrors.ErrCodeLayoutNotFound, "layout %s not found", id)
}
