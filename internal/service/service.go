// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler / Bot (transport) → parses input, renders output
//	Service (business layer)  → validates, authorizes, orchestrates
//	Repository (data layer)   → reads/writes the database
//
// EXPLICIT PRINCIPAL:
// Every method that reads or mutates owned data takes the acting
// model.Principal as a parameter. Services never look at a request, a
// cookie or a context value to find out who is calling, so authorization
// rules are tested with plain function calls.
//
// TRANSACTIONS:
// Each write runs inside repository.Store.InTx. Inside the callback only the
// transaction-bound Queries may be used; on SQLite the pool has a single
// connection and touching the Store there would wait forever.
package service

import (
	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/model"
)

// Sources label where a write came from, for metrics and logs.
const (
	SourceWeb = "web"
	SourceAPI = "api"
	SourceBot = "bot"
)

// requireLogin rejects the anonymous principal.
func requireLogin(p model.Principal) error {
	if p.IsAnonymous() {
		return apperror.Unauthorized("You need to log in first.")
	}
	return nil
}

// requireAdmin rejects everyone without the admin flag.
func requireAdmin(p model.Principal) error {
	if err := requireLogin(p); err != nil {
		return err
	}
	if !p.IsAdmin {
		return apperror.Forbidden("Only administrators can do that.")
	}
	return nil
}
