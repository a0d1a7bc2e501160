package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Accounts, plans and the token ledger
		r.Post("/accounts", h.RegisterAccount)
		r.Get("/accounts/{id}", h.GetAccount)
		r.Post("/accounts/{id}/recharge", h.RechargeAccount)
		r.Post("/accounts/{id}/upgrade", h.UpgradeAccount)
		r.Get("/accounts/{id}/ledger", h.GetLedger)
		r.Get("/accounts/{id}/history", h.GetHistory)
		r.Delete("/accounts/{id}/history", h.ClearHistory)

		// Keypad calculator sessions (nested under accounts + direct access)
		r.Post("/accounts/{id}/calculator", h.CreateCalculatorSession)
		r.Get("/calculator/{sid}", h.GetCalculatorState)
		r.Post("/calculator/{sid}/input", h.ApplyCalculatorInput)
		r.Delete("/calculator/{sid}", h.CloseCalculatorSession)

		// Assistant conversations
		r.Post("/accounts/{id}/conversations", h.CreateConversation)
		r.Get("/conversations/{cid}/messages", h.ListConversationMessages)
		r.Post("/conversations/{cid}/ask", h.AskConversation)
		r.Delete("/conversations/{cid}", h.DeleteConversation)
	})
}
