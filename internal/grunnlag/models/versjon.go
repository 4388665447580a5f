package models

import (
	id "grunnlag/pkg/domain"
)

// BehandlingVersjon pins a behandling to a hendelsenummer in its sak. Once
// Laast is set, only LockTo may change the pin.
type BehandlingVersjon struct {
	BehandlingID   id.BehandlingID `json:"behandlingId"`
	SakID          id.SakID        `json:"sakId"`
	Hendelsenummer int64           `json:"hendelsenummer"`
	Laast          bool            `json:"laast"`
}

// LagringsResultat reports the outcome of appending a batch to a behandling.
// Hendelsenummer is nil when every fact was already recorded; the pointer is
// then left where it was.
type LagringsResultat struct {
	BehandlingID   id.BehandlingID `json:"behandlingId"`
	SakID          id.SakID        `json:"sakId"`
	Hendelsenummer *int64          `json:"hendelsenummer"`
	Lagret         int             `json:"lagret"`
	Duplikater     int             `json:"duplikater"`
}
