package main

import (
	"context"
	"database/sql"
	"time"

	"grunnlag/internal/grunnlag/service"
	versjonstore "grunnlag/internal/grunnlag/store/versjon"
	"grunnlag/pkg/platform/tx"
)

// versjonPostgresTx runs pointer changes and their audit events in one
// database transaction. The audit store picks the transaction up from ctx.
type versjonPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newVersjonPostgresTx(db *sql.DB) *versjonPostgresTx {
	return &versjonPostgresTx{db: db, timeout: tx.DefaultTimeout}
}

func (t *versjonPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store service.VersjonStore) error) error {
	return tx.Run(ctx, t.db, t.timeout, func(ctx context.Context, sqlTx *sql.Tx) error {
		return fn(ctx, versjonstore.NewPostgresTx(sqlTx))
	})
}
