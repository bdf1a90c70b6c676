package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linkvault/companion-core/internal/database"
	"github.com/linkvault/companion-core/internal/model"
)

type fakeResult struct {
	rows int64
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, nil }

type fakeDBTX struct {
	getErr     error
	execResult sql.Result
	execErr    error
	gotQuery   string
	gotArgs    []interface{}
}

func (f *fakeDBTX) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	f.gotQuery = query
	f.gotArgs = args
	return f.getErr
}

func (f *fakeDBTX) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (f *fakeDBTX) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.gotQuery = query
	f.gotArgs = args
	return f.execResult, f.execErr
}

func (f *fakeDBTX) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

var _ database.DBTX = (*fakeDBTX)(nil)

func TestPairingRepo_FindByToken(t *testing.T) {
	ctx := context.Background()

	t.Run("missing row is nil without error", func(t *testing.T) {
		repo := NewPairingRepository(&fakeDBTX{getErr: sql.ErrNoRows})

		pairing, err := repo.FindByToken(ctx, "tok-1")
		assert.NoError(t, err)
		assert.Nil(t, pairing)
	})

	t.Run("query errors propagate", func(t *testing.T) {
		repo := NewPairingRepository(&fakeDBTX{getErr: assert.AnError})

		_, err := repo.FindByToken(ctx, "tok-1")
		assert.Error(t, err)
	})
}

func TestPairingRepo_Approve(t *testing.T) {
	ctx := context.Background()
	approvedAt := time.Now()

	t.Run("update is guarded by pending status", func(t *testing.T) {
		db := &fakeDBTX{execResult: fakeResult{rows: 1}}
		repo := NewPairingRepository(db)

		rows, err := repo.Approve(ctx, "tok-1", approvedAt)
		assert.NoError(t, err)
		assert.EqualValues(t, 1, rows)
		assert.Contains(t, db.gotQuery, "status = $4")
		assert.Contains(t, db.gotArgs, interface{}(model.PairingStatusPending))
	})

	t.Run("reports zero rows when nothing matched", func(t *testing.T) {
		repo := NewPairingRepository(&fakeDBTX{execResult: fakeResult{rows: 0}})

		rows, err := repo.Approve(ctx, "tok-1", approvedAt)
		assert.NoError(t, err)
		assert.EqualValues(t, 0, rows)
	})

	t.Run("exec errors propagate", func(t *testing.T) {
		repo := NewPairingRepository(&fakeDBTX{execErr: assert.AnError})

		_, err := repo.Approve(ctx, "tok-1", approvedAt)
		assert.Error(t, err)
	})
}

func TestPairingRepo_DeleteStalePending(t *testing.T) {
	t.Run("returns affected row count", func(t *testing.T) {
		db := &fakeDBTX{execResult: fakeResult{rows: 3}}
		repo := NewPairingRepository(db)

		count, err := repo.DeleteStalePending(context.Background(), time.Now())
		assert.NoError(t, err)
		assert.EqualValues(t, 3, count)
		assert.Contains(t, db.gotQuery, "DELETE FROM pairing_requests")
	})
}
