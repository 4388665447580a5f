package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
)

const uniqueViolation = "23505"

const (
	hendelseColumns        = `sak_id, hendelsenummer, opplysning_id, opplysning_type, kilde, opplysning, fnr, fom, tom, attestering`
	aliasedHendelseColumns = `g.sak_id, g.hendelsenummer, g.opplysning_id, g.opplysning_type, g.kilde, g.opplysning, g.fnr, g.fom, g.tom, g.attestering`
)

// PostgresStore persists the ledger in PostgreSQL. Numbers come from a
// per-sak counter row that is locked for the duration of each insert, so
// concurrent appends to one sak serialize and a number is only visible once
// the row carrying it has committed.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgres(db *sql.DB, opts ...Option) *PostgresStore {
	o := applyOptions(opts)
	return &PostgresStore{db: db, logger: o.logger}
}

// Append inserts opplysning in its own transaction. A duplicate id rolls
// back without consuming a number.
func (s *PostgresStore) Append(ctx context.Context, sakID id.SakID, opplysning models.Opplysning, fnr *id.Folkeregisteridentifikator) (int64, bool, error) {
	if fnr != nil {
		f := *fnr
		opplysning.Fnr = &f
	}
	row, err := toRow(sakID, opplysning)
	if err != nil {
		return 0, false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin append: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sak_hendelsenummer (sak_id, siste) VALUES ($1, 0)
		ON CONFLICT (sak_id) DO NOTHING
	`, int64(sakID)); err != nil {
		return 0, false, fmt.Errorf("ensure sak counter: %w", err)
	}

	var siste int64
	if err := tx.QueryRowContext(ctx, `
		SELECT siste FROM sak_hendelsenummer WHERE sak_id = $1 FOR UPDATE
	`, int64(sakID)).Scan(&siste); err != nil {
		return 0, false, fmt.Errorf("lock sak counter: %w", err)
	}

	var finnes bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM grunnlagshendelse WHERE sak_id = $1 AND opplysning_id = $2)
	`, int64(sakID), row.opplysningID).Scan(&finnes); err != nil {
		return 0, false, fmt.Errorf("check duplicate opplysning: %w", err)
	}
	if finnes {
		return 0, false, nil
	}

	neste := siste + 1
	_, err = tx.ExecContext(ctx, `
		INSERT INTO grunnlagshendelse (`+hendelseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, int64(sakID), neste, row.opplysningID, row.typ, row.kilde, row.opplysning, row.fnr, row.fom, row.tom, row.attestering)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("insert grunnlagshendelse: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE sak_hendelsenummer SET siste = $2 WHERE sak_id = $1
	`, int64(sakID), neste); err != nil {
		return 0, false, fmt.Errorf("advance sak counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit append: %w", err)
	}
	return neste, true, nil
}

// AppendBatch appends each fact independently, in input order. Facts
// committed before a failure stay committed; retrying the batch is safe.
func (s *PostgresStore) AppendBatch(ctx context.Context, sakID id.SakID, opplysninger []models.Opplysning, fnr *id.Folkeregisteridentifikator) (*int64, error) {
	var hoeyeste *int64
	for _, o := range opplysninger {
		nr, inserted, err := s.Append(ctx, sakID, o, fnr)
		if err != nil {
			return hoeyeste, fmt.Errorf("append opplysning %s: %w", o.ID, err)
		}
		if inserted {
			hoeyeste = &nr
		}
	}
	return hoeyeste, nil
}

func (s *PostgresStore) Siste(ctx context.Context, sakID id.SakID) (int64, error) {
	var siste int64
	err := s.db.QueryRowContext(ctx, `SELECT siste FROM sak_hendelsenummer WHERE sak_id = $1`, int64(sakID)).Scan(&siste)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sak counter: %w", err)
	}
	return siste, nil
}

func (s *PostgresStore) LatestOfType(ctx context.Context, sakID id.SakID, typ models.OpplysningType) (*models.Grunnlagshendelse, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+hendelseColumns+` FROM grunnlagshendelse
		WHERE sak_id = $1 AND opplysning_type = $2
		ORDER BY hendelsenummer DESC LIMIT 1
	`, int64(sakID), string(typ))
	return scanOptional(row)
}

func (s *PostgresStore) LatestOfTypeAsOf(ctx context.Context, sakID id.SakID, typ models.OpplysningType, bound int64) (*models.Grunnlagshendelse, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+hendelseColumns+` FROM grunnlagshendelse
		WHERE sak_id = $1 AND opplysning_type = $2 AND hendelsenummer <= $3
		ORDER BY hendelsenummer DESC LIMIT 1
	`, int64(sakID), string(typ), bound)
	return scanOptional(row)
}

func (s *PostgresStore) OfType(ctx context.Context, sakID id.SakID, typ models.OpplysningType) ([]models.Grunnlagshendelse, error) {
	return s.query(ctx, `
		SELECT `+hendelseColumns+` FROM grunnlagshendelse
		WHERE sak_id = $1 AND opplysning_type = $2
		ORDER BY hendelsenummer
	`, int64(sakID), string(typ))
}

func (s *PostgresStore) OfTypesAsOf(ctx context.Context, sakID id.SakID, typer []models.OpplysningType, bound int64) ([]models.Grunnlagshendelse, error) {
	names := make([]string, len(typer))
	for i, t := range typer {
		names[i] = string(t)
	}
	return s.query(ctx, `
		SELECT `+hendelseColumns+` FROM grunnlagshendelse
		WHERE sak_id = $1 AND opplysning_type = ANY($2) AND hendelsenummer <= $3
		ORDER BY hendelsenummer
	`, int64(sakID), pq.Array(names), bound)
}

func (s *PostgresStore) AllEntries(ctx context.Context, sakID id.SakID) ([]models.Grunnlagshendelse, error) {
	return s.query(ctx, `
		SELECT `+hendelseColumns+` FROM grunnlagshendelse
		WHERE sak_id = $1
		ORDER BY hendelsenummer
	`, int64(sakID))
}

func (s *PostgresStore) EntriesAsOf(ctx context.Context, sakID id.SakID, bound int64) ([]models.Grunnlagshendelse, error) {
	return s.query(ctx, `
		SELECT `+hendelseColumns+` FROM grunnlagshendelse
		WHERE sak_id = $1 AND hendelsenummer <= $2
		ORDER BY hendelsenummer
	`, int64(sakID), bound)
}

func (s *PostgresStore) EntryIDs(ctx context.Context, sakID id.SakID) (map[id.OpplysningID]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT opplysning_id FROM grunnlagshendelse WHERE sak_id = $1`, int64(sakID))
	if err != nil {
		return nil, fmt.Errorf("query opplysning ids: %w", err)
	}
	defer rows.Close()

	out := make(map[id.OpplysningID]struct{})
	for rows.Next() {
		var u uuid.UUID
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan opplysning id: %w", err)
		}
		out[id.OpplysningID(u)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opplysning ids: %w", err)
	}
	return out, nil
}

// FindRostersContaining narrows candidates with a text match on the roster
// payload, then confirms membership on the decoded latest roster per sak.
// A sak whose roster cannot be decoded is logged and skipped.
func (s *PostgresStore) FindRostersContaining(ctx context.Context, fnr id.Folkeregisteridentifikator) ([]models.SakPersongalleri, error) {
	hendelser, err := s.query(ctx, `
		SELECT DISTINCT ON (g.sak_id) `+aliasedHendelseColumns+`
		FROM grunnlagshendelse g
		WHERE g.opplysning_type = $1
		  AND g.sak_id IN (
			SELECT sak_id FROM grunnlagshendelse
			WHERE opplysning_type = $1 AND position($2 in opplysning::text) > 0
		  )
		ORDER BY g.sak_id, g.hendelsenummer DESC
	`, string(models.PersongalleriV1), fnr.String())
	if err != nil {
		return nil, err
	}

	var out []models.SakPersongalleri
	for _, h := range hendelser {
		galleri, err := models.DekodPersongalleri(h.Opplysning)
		if err != nil {
			logUndecodableRoster(ctx, s.logger, h, err)
			continue
		}
		if slices.Contains(galleri.Personer(), fnr) {
			out = append(out, models.SakPersongalleri{SakID: h.SakID, Persongalleri: galleri})
		}
	}
	return out, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]models.Grunnlagshendelse, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query grunnlagshendelser: %w", err)
	}
	defer rows.Close()

	out := []models.Grunnlagshendelse{}
	for rows.Next() {
		h, err := scanHendelse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grunnlagshendelser: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOptional(row *sql.Row) (*models.Grunnlagshendelse, error) {
	h, err := scanHendelse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return h, err
}

func scanHendelse(row scanner) (*models.Grunnlagshendelse, error) {
	var (
		sakID          int64
		hendelsenummer int64
		opplysningID   uuid.UUID
		typ            string
		kilde          []byte
		opplysning     []byte
		fnr            sql.NullString
		fom            sql.NullTime
		tom            sql.NullTime
		attestering    []byte
	)
	if err := row.Scan(&sakID, &hendelsenummer, &opplysningID, &typ, &kilde, &opplysning, &fnr, &fom, &tom, &attestering); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan grunnlagshendelse: %w", err)
	}

	o := models.Opplysning{
		ID:         id.OpplysningID(opplysningID),
		Type:       models.OpplysningType(typ),
		Opplysning: json.RawMessage(opplysning),
	}
	if err := json.Unmarshal(kilde, &o.Kilde); err != nil {
		return nil, fmt.Errorf("decode kilde for %s: %w", opplysningID, err)
	}
	if fnr.Valid {
		f := id.Folkeregisteridentifikator(fnr.String)
		o.Fnr = &f
	}
	if fom.Valid {
		o.Periode = &models.Periode{Fom: fom.Time}
		if tom.Valid {
			t := tom.Time
			o.Periode.Tom = &t
		}
	}
	if len(attestering) > 0 {
		o.Attestering = &models.Attestering{}
		if err := json.Unmarshal(attestering, o.Attestering); err != nil {
			return nil, fmt.Errorf("decode attestering for %s: %w", opplysningID, err)
		}
	}
	return &models.Grunnlagshendelse{
		SakID:          id.SakID(sakID),
		Hendelsenummer: hendelsenummer,
		Opplysning:     o,
	}, nil
}

type hendelseRow struct {
	opplysningID uuid.UUID
	typ          string
	kilde        []byte
	opplysning   []byte
	fnr          sql.NullString
	fom          sql.NullTime
	tom          sql.NullTime
	attestering  any
}

func toRow(sakID id.SakID, o models.Opplysning) (hendelseRow, error) {
	kilde, err := json.Marshal(o.Kilde)
	if err != nil {
		return hendelseRow{}, fmt.Errorf("encode kilde for %s in sak %s: %w", o.ID, sakID, err)
	}
	row := hendelseRow{
		opplysningID: uuid.UUID(o.ID),
		typ:          string(o.Type),
		kilde:        kilde,
		opplysning:   []byte(o.Opplysning),
	}
	if o.Fnr != nil && !o.Fnr.IsEmpty() {
		row.fnr = sql.NullString{String: o.Fnr.String(), Valid: true}
	}
	if o.Periode != nil {
		row.fom = sql.NullTime{Time: o.Periode.Fom, Valid: true}
		if o.Periode.Tom != nil {
			row.tom = sql.NullTime{Time: *o.Periode.Tom, Valid: true}
		}
	}
	if o.Attestering != nil {
		attestering, err := json.Marshal(o.Attestering)
		if err != nil {
			return hendelseRow{}, fmt.Errorf("encode attestering for %s: %w", o.ID, err)
		}
		row.attestering = attestering
	}
	return row, nil
}
