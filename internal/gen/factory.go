package gen

import (
	"fmt"

	"github.com/articleforge/articleforge/internal/config"
	"github.com/articleforge/articleforge/internal/gen/gemini"
	"github.com/articleforge/articleforge/internal/gen/mock"
	"github.com/articleforge/articleforge/pkg/models"
)

// NewProvider constructs the appropriate generation provider based on config.
// Called once at server startup.
func NewProvider(cfg config.GenConfig) (models.Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewProvider(cfg.Gemini), nil
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q: must be one of gemini, mock", cfg.Provider)
	}
}
