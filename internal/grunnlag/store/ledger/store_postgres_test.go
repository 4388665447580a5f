package ledger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
)

func newMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func expectCounterLock(mock sqlmock.Sqlmock, sakID int64, siste int64) {
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO sak_hendelsenummer`).
		WithArgs(sakID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT siste FROM sak_hendelsenummer WHERE sak_id = \$1 FOR UPDATE`).
		WithArgs(sakID).
		WillReturnRows(sqlmock.NewRows([]string{"siste"}).AddRow(siste))
}

func TestPostgresAppend(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts with next number and bumps counter", func(t *testing.T) {
		store, mock := newMock(t)
		o := opplysning(models.Spraak, `{"spraak":"nb"}`)

		expectCounterLock(mock, 7, 4)
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(7), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`INSERT INTO grunnlagshendelse`).
			WithArgs(int64(7), int64(5), sqlmock.AnyArg(), "SPRAAK", sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil, nil, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE sak_hendelsenummer SET siste = \$2`).
			WithArgs(int64(7), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		nr, inserted, err := store.Append(ctx, 7, o, nil)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Equal(t, int64(5), nr)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing id rolls back without consuming a number", func(t *testing.T) {
		store, mock := newMock(t)

		expectCounterLock(mock, 7, 4)
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		nr, inserted, err := store.Append(ctx, 7, opplysning(models.Spraak, `{}`), nil)
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.Zero(t, nr)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation is treated as duplicate", func(t *testing.T) {
		store, mock := newMock(t)

		expectCounterLock(mock, 7, 4)
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`INSERT INTO grunnlagshendelse`).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		_, inserted, err := store.Append(ctx, 7, opplysning(models.Spraak, `{}`), nil)
		require.NoError(t, err)
		assert.False(t, inserted)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other insert errors surface", func(t *testing.T) {
		store, mock := newMock(t)

		expectCounterLock(mock, 7, 4)
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`INSERT INTO grunnlagshendelse`).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, _, err := store.Append(ctx, 7, opplysning(models.Spraak, `{}`), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert grunnlagshendelse")
	})
}

func TestPostgresAppendBatchStopsOnError(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	expectCounterLock(mock, 7, 0)
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO grunnlagshendelse`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE sak_hendelsenummer`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	hoeyeste, err := store.AppendBatch(ctx, 7, []models.Opplysning{
		opplysning(models.Spraak, `{}`),
		opplysning(models.Spraak, `{}`),
	}, nil)
	require.Error(t, err)
	require.NotNil(t, hoeyeste)
	assert.Equal(t, int64(1), *hoeyeste)
}

func TestPostgresLatestOfTypeAsOf(t *testing.T) {
	ctx := context.Background()
	columns := []string{"sak_id", "hendelsenummer", "opplysning_id", "opplysning_type", "kilde", "opplysning", "fnr", "fom", "tom", "attestering"}

	t.Run("scans entry", func(t *testing.T) {
		store, mock := newMock(t)
		opplysningID := uuid.New()
		mock.ExpectQuery(`FROM grunnlagshendelse\s+WHERE sak_id = \$1 AND opplysning_type = \$2 AND hendelsenummer <= \$3`).
			WithArgs(int64(7), "AVDOED_PDL_V1", int64(5)).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(
				int64(7), int64(3), opplysningID.String(), "AVDOED_PDL_V1",
				[]byte(`{"type":"pdl","tidspunktForInnhenting":"2024-01-01T00:00:00Z","registersreferanse":"ref"}`),
				[]byte(`{"navn":"Ola"}`), string(avdoed), nil, nil, nil,
			))

		h, err := store.LatestOfTypeAsOf(ctx, 7, models.AvdoedPdlV1, 5)
		require.NoError(t, err)
		require.NotNil(t, h)
		assert.Equal(t, int64(3), h.Hendelsenummer)
		assert.Equal(t, id.OpplysningID(opplysningID), h.Opplysning.ID)
		assert.Equal(t, avdoed, h.Fnr())
		assert.Equal(t, models.KildePdl, h.Opplysning.Kilde.Type)
		assert.JSONEq(t, `{"navn":"Ola"}`, string(h.Opplysning.Opplysning))
	})

	t.Run("no rows is none", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(`FROM grunnlagshendelse`).WillReturnRows(sqlmock.NewRows(columns))

		h, err := store.LatestOfTypeAsOf(ctx, 7, models.AvdoedPdlV1, 5)
		require.NoError(t, err)
		assert.Nil(t, h)
	})
}

func TestPostgresFindRostersContaining(t *testing.T) {
	columns := []string{"sak_id", "hendelsenummer", "opplysning_id", "opplysning_type", "kilde", "opplysning", "fnr", "fom", "tom", "attestering"}
	kilde := []byte(`{"type":"pdl","tidspunktForInnhenting":"2024-01-01T00:00:00Z","registersreferanse":"ref"}`)

	var logs bytes.Buffer
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := NewPostgres(db, WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))

	mock.ExpectQuery(`SELECT DISTINCT ON \(g.sak_id\)`).
		WithArgs("PERSONGALLERI_V1", string(avdoed)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(10), int64(1), uuid.New().String(), "PERSONGALLERI_V1", kilde,
				[]byte(`["`+string(avdoed)+`"]`), nil, nil, nil, nil).
			AddRow(int64(20), int64(4), uuid.New().String(), "PERSONGALLERI_V1", kilde,
				[]byte(`{"soeker":"`+string(soeker)+`","avdoed":["`+string(avdoed)+`"]}`), nil, nil, nil, nil))

	saker, err := store.FindRostersContaining(context.Background(), avdoed)
	require.NoError(t, err)
	require.Len(t, saker, 1)
	assert.Equal(t, id.SakID(20), saker[0].SakID)
	assert.Equal(t, soeker, saker[0].Persongalleri.Soeker)
	assert.Contains(t, logs.String(), `"sak_id":10`)
	assert.NotContains(t, logs.String(), string(avdoed))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSisteWithoutCounter(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(`SELECT siste FROM sak_hendelsenummer`).
		WillReturnRows(sqlmock.NewRows([]string{"siste"}))

	siste, err := store.Siste(context.Background(), 99)
	require.NoError(t, err)
	assert.Zero(t, siste)
}
