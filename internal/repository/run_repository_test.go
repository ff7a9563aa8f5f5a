package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

type fakeRow struct {
	id      int64
	created time.Time
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.id
	*dest[1].(*time.Time) = r.created
	return nil
}

type runRows struct {
	data []domain.TicketRun
	pos  int
}

func (r *runRows) Close()                                       {}
func (r *runRows) Err() error                                   { return nil }
func (r *runRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *runRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *runRows) Values() ([]any, error)                       { return nil, nil }
func (r *runRows) RawValues() [][]byte                          { return nil }
func (r *runRows) Conn() *pgx.Conn                              { return nil }

func (r *runRows) Next() bool {
	r.pos++
	return r.pos <= len(r.data)
}

func (r *runRows) Scan(dest ...any) error {
	run := r.data[r.pos-1]
	*dest[0].(*int64) = run.ID
	*dest[1].(*string) = run.RunID
	*dest[2].(*string) = run.RequesterID
	*dest[3].(*string) = run.Category
	*dest[4].(*string) = string(run.Outcome)
	*dest[5].(*string) = run.Reason
	*dest[6].(*int64) = run.DurationMs
	*dest[7].(*time.Time) = run.CreatedAt
	return nil
}

type fakeDB struct {
	row  fakeRow
	rows *runRows
	args []any
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	f.args = args
	return f.row
}

func (f *fakeDB) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	f.args = args
	return f.rows, nil
}

func TestRunRepositoryCreate(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	db := &fakeDB{row: fakeRow{id: 7, created: created}}
	run := &domain.TicketRun{RunID: "r1", RequesterID: "E001", Outcome: domain.OutcomeEscalated, DurationMs: 12}

	require.NoError(t, NewRunRepository(db).Create(context.Background(), run))
	assert.Equal(t, int64(7), run.ID)
	assert.Equal(t, created, run.CreatedAt)
	assert.Equal(t, "ESCALATED", db.args[3])
}

func TestRunRepositoryCreateIsIdempotent(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	require.NoError(t, NewRunRepository(db).Create(context.Background(), &domain.TicketRun{RunID: "r1"}))

	db.row = fakeRow{err: errors.New("connection reset")}
	require.Error(t, NewRunRepository(db).Create(context.Background(), &domain.TicketRun{RunID: "r2"}))
}

func TestRunRepositoryListByRequester(t *testing.T) {
	db := &fakeDB{rows: &runRows{data: []domain.TicketRun{
		{ID: 2, RunID: "r2", RequesterID: "E004", Outcome: domain.OutcomeEscalated},
		{ID: 1, RunID: "r1", RequesterID: "E004", Outcome: domain.OutcomeResolved},
	}}}

	got, err := NewRunRepository(db).ListByRequester(context.Background(), "E004", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.OutcomeEscalated, got[0].Outcome)
	assert.Equal(t, []any{"E004", DefaultRunListLimit}, db.args)
}
