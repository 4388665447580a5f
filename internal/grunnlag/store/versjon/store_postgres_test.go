package versjon

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
	"grunnlag/pkg/platform/sentinel"
)

var versjonColumns = []string{"behandling_id", "sak_id", "hendelsenummer", "laast"}

func newMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresAdvance(t *testing.T) {
	ctx := context.Background()
	b := uuid.New()

	t.Run("upsert writes", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectExec(`INSERT INTO behandling_versjon`).
			WithArgs(b, int64(3), int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.Advance(ctx, id.BehandlingID(b), 3, 9))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-op on locked pointer reports locked", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectExec(`INSERT INTO behandling_versjon`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT behandling_id, sak_id, hendelsenummer, laast`).
			WillReturnRows(sqlmock.NewRows(versjonColumns).AddRow(b.String(), int64(3), int64(5), true))

		err := store.Advance(ctx, id.BehandlingID(b), 3, 9)
		assert.ErrorIs(t, err, models.ErrGrunnlagLaast)
	})

	t.Run("no-op on newer unlocked pointer is fine", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectExec(`INSERT INTO behandling_versjon`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT behandling_id, sak_id, hendelsenummer, laast`).
			WillReturnRows(sqlmock.NewRows(versjonColumns).AddRow(b.String(), int64(3), int64(12), false))

		require.NoError(t, store.Advance(ctx, id.BehandlingID(b), 3, 9))
	})
}

func TestPostgresLock(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(`UPDATE behandling_versjon SET laast = true`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Lock(context.Background(), id.BehandlingID(uuid.New()))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresLockTo(t *testing.T) {
	ctx := context.Background()
	target, source := uuid.New(), uuid.New()

	t.Run("returns locked target", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(`WITH kilde AS`).
			WithArgs(target, source).
			WillReturnRows(sqlmock.NewRows(versjonColumns).AddRow(target.String(), int64(4), int64(5), true))

		v, err := store.LockTo(ctx, id.BehandlingID(target), id.BehandlingID(source))
		require.NoError(t, err)
		assert.Equal(t, int64(5), v.Hendelsenummer)
		assert.True(t, v.Laast)
	})

	t.Run("unlocked source", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(`WITH kilde AS`).WillReturnRows(sqlmock.NewRows(versjonColumns))
		mock.ExpectQuery(`SELECT behandling_id, sak_id, hendelsenummer, laast`).
			WithArgs(source).
			WillReturnRows(sqlmock.NewRows(versjonColumns).AddRow(source.String(), int64(4), int64(5), false))

		_, err := store.LockTo(ctx, id.BehandlingID(target), id.BehandlingID(source))
		assert.ErrorIs(t, err, models.ErrKildeIkkeLaast)
	})

	t.Run("locked target", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(`WITH kilde AS`).WillReturnRows(sqlmock.NewRows(versjonColumns))
		mock.ExpectQuery(`SELECT behandling_id, sak_id, hendelsenummer, laast`).
			WillReturnRows(sqlmock.NewRows(versjonColumns).AddRow(source.String(), int64(4), int64(5), true))

		_, err := store.LockTo(ctx, id.BehandlingID(target), id.BehandlingID(source))
		assert.ErrorIs(t, err, models.ErrGrunnlagLaast)
	})

	t.Run("missing source", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(`WITH kilde AS`).WillReturnRows(sqlmock.NewRows(versjonColumns))
		mock.ExpectQuery(`SELECT behandling_id, sak_id, hendelsenummer, laast`).
			WillReturnRows(sqlmock.NewRows(versjonColumns))

		_, err := store.LockTo(ctx, id.BehandlingID(target), id.BehandlingID(source))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
