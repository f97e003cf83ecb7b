package handlers

import (
	"github.com/varlor/calculations/internal/config"
	"github.com/varlor/calculations/internal/logging"
	"github.com/varlor/calculations/internal/services"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger          *logging.Logger
	analysisService *services.AnalysisService
	version         string
}

// New creates a new handler instance
func New(logger *logging.Logger, cfg config.AnalysisConfig, version string) *Handler {
	return &Handler{
		logger:          logger,
		analysisService: services.NewAnalysisService(logger, cfg),
		version:         version,
	}
}
