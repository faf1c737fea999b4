package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/garrettladley/csverify/internal/version"
	"github.com/garrettladley/csverify/internal/xerrors"
	"github.com/garrettladley/csverify/internal/xhttp"
)

const healthTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Health struct {
	backend Pinger
}

func NewHealth(backend Pinger) *Health {
	return &Health{backend: backend}
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HandleHealth handles GET /health requests.
func (h *Health) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.backend.Ping(ctx); err != nil {
		xerrors.WriteError(r.Context(), w, xerrors.ServiceUnavailable(
			xerrors.WithMessage("storage unavailable"),
			xerrors.WithCause(err),
		))
		return
	}

	xhttp.WriteOK(w, healthResponse{Status: "ok", Version: version.Get()})
}
