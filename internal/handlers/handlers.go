package handlers

import (
	"github.com/loomline/backend/internal/auth"
	"github.com/loomline/backend/internal/feed"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	authService *auth.Service
	enricher    *feed.Engine
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, enricher *feed.Engine) *Handlers {
	return &Handlers{
		authService: authService,
		enricher:    enricher,
	}
}
