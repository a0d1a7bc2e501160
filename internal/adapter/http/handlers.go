package http

import (
	"github.com/Strob0t/TokenCalc/internal/service"
)

// Handlers bundles the service dependencies for all HTTP handlers.
type Handlers struct {
	Accounts   *service.AccountService
	Calculator *service.CalculatorService
	Assistant  *service.AssistantService
}

// NewHandlers creates the handler set.
func NewHandlers(accounts *service.AccountService, calculator *service.CalculatorService, assistant *service.AssistantService) *Handlers {
	return &Handlers{
		Accounts:   accounts,
		Calculator: calculator,
		Assistant:  assistant,
	}
}
