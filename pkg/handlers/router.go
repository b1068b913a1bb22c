// Package handlers assembles the ledger's HTTP surface.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/chris/wallet-ledger/pkg/handlers/transactions"
	"github.com/chris/wallet-ledger/pkg/handlers/wallets"
	"github.com/chris/wallet-ledger/pkg/middleware"
	"github.com/go-chi/chi/v5"
)

// NewRouter mounts the wallet and transaction handlers behind the auth and
// logging middleware.
func NewRouter(logger *slog.Logger, auth *middleware.Auth, wh *wallets.Handler, th *transactions.Handler) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.NewStructuredLogger(logger))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", wh.GetWallet)
			r.Post("/", wh.CreateWallet)
			r.Patch("/", wh.UpdateWallet)
			r.Delete("/", wh.DeleteWallet)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", th.ListTransactions)
			r.Post("/", th.CreateTransaction)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", th.GetTransaction)
				r.Patch("/", th.UpdateTransaction)
				r.Delete("/", th.DeleteTransaction)
			})
		})
	})

	return router
}
