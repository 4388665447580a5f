package versjon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
	"grunnlag/pkg/platform/sentinel"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists version pointers in behandling_versjon.
type PostgresStore struct {
	db dbtx
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx binds the store to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{db: tx}
}

func (s *PostgresStore) Get(ctx context.Context, behandlingID id.BehandlingID) (*models.BehandlingVersjon, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT behandling_id, sak_id, hendelsenummer, laast
		FROM behandling_versjon WHERE behandling_id = $1
	`, uuid.UUID(behandlingID))
	v, err := scanVersjon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return v, err
}

func (s *PostgresStore) Advance(ctx context.Context, behandlingID id.BehandlingID, sakID id.SakID, hendelsenummer int64) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO behandling_versjon (behandling_id, sak_id, hendelsenummer, laast)
		VALUES ($1, $2, $3, false)
		ON CONFLICT (behandling_id) DO UPDATE
		SET sak_id = EXCLUDED.sak_id, hendelsenummer = EXCLUDED.hendelsenummer
		WHERE NOT behandling_versjon.laast
		  AND (behandling_versjon.sak_id <> EXCLUDED.sak_id OR behandling_versjon.hendelsenummer < EXCLUDED.hendelsenummer)
	`, uuid.UUID(behandlingID), int64(sakID), hendelsenummer)
	if err != nil {
		return fmt.Errorf("advance behandling_versjon: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance behandling_versjon rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	current, err := s.Get(ctx, behandlingID)
	if err != nil {
		return fmt.Errorf("read behandling_versjon after no-op advance: %w", err)
	}
	if current.Laast {
		return models.ErrGrunnlagLaast
	}
	return nil
}

func (s *PostgresStore) Lock(ctx context.Context, behandlingID id.BehandlingID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE behandling_versjon SET laast = true WHERE behandling_id = $1
	`, uuid.UUID(behandlingID))
	if err != nil {
		return fmt.Errorf("lock behandling_versjon: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("lock behandling_versjon rows: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// LockTo copies and locks in one statement. When nothing is written the
// source and target are read back to report why.
func (s *PostgresStore) LockTo(ctx context.Context, target, source id.BehandlingID) (*models.BehandlingVersjon, error) {
	row := s.db.QueryRowContext(ctx, `
		WITH kilde AS (
			SELECT sak_id, hendelsenummer FROM behandling_versjon
			WHERE behandling_id = $2 AND laast
		)
		INSERT INTO behandling_versjon (behandling_id, sak_id, hendelsenummer, laast)
		SELECT $1, sak_id, hendelsenummer, true FROM kilde
		ON CONFLICT (behandling_id) DO UPDATE
		SET sak_id = EXCLUDED.sak_id, hendelsenummer = EXCLUDED.hendelsenummer, laast = true
		WHERE NOT behandling_versjon.laast
		RETURNING behandling_id, sak_id, hendelsenummer, laast
	`, uuid.UUID(target), uuid.UUID(source))
	v, err := scanVersjon(row)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock behandling_versjon to source: %w", err)
	}

	kilde, err := s.Get(ctx, source)
	if err != nil {
		return nil, err
	}
	if !kilde.Laast {
		return nil, models.ErrKildeIkkeLaast
	}
	return nil, models.ErrGrunnlagLaast
}

func scanVersjon(row *sql.Row) (*models.BehandlingVersjon, error) {
	var (
		behandlingID   uuid.UUID
		sakID          int64
		hendelsenummer int64
		laast          bool
	)
	if err := row.Scan(&behandlingID, &sakID, &hendelsenummer, &laast); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan behandling_versjon: %w", err)
	}
	return &models.BehandlingVersjon{
		BehandlingID:   id.BehandlingID(behandlingID),
		SakID:          id.SakID(sakID),
		Hendelsenummer: hendelsenummer,
		Laast:          laast,
	}, nil
}
