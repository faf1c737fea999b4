package handler

import (
	"io"
	"net/http"

	"github.com/garrettladley/csverify/internal/service/webhook"
	"github.com/garrettladley/csverify/internal/xerrors"
	"github.com/garrettladley/csverify/internal/xhttp"
	"github.com/garrettladley/csverify/internal/xslog"
	cswebhook "github.com/garrettladley/csverify/webhook"
)

type Webhook struct {
	service webhook.Service
}

func NewWebhook(service webhook.Service) *Webhook {
	return &Webhook{service: service}
}

type webhookResponse struct {
	ID string `json:"id"`
}

// HandleWebhook handles POST /webhooks/contentstack requests.
func (h *Webhook) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		if xerrors.IsBodyTooLarge(err) {
			xerrors.WriteError(ctx, w, xerrors.PayloadTooLarge(xerrors.WithCause(err)))
			return
		}
		xerrors.WriteError(ctx, w, xerrors.BadRequest(
			xerrors.WithMessage("failed to read request body"),
			xerrors.WithCause(err),
		))
		return
	}

	receipt, err := h.service.ProcessWebhook(ctx, webhook.ProcessRequest{
		Body:      body,
		Signature: r.Header.Get(cswebhook.SignatureHeader),
	})
	if err != nil {
		xerrors.WriteError(ctx, w, xerrors.FromVerification(err))
		return
	}

	xslog.FromContext(ctx).DebugContext(ctx, "webhook accepted", xslog.ReceiptID(receipt.ID))
	xhttp.WriteOK(w, webhookResponse{ID: receipt.ID})
}
