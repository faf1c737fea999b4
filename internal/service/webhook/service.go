package webhook

import (
	"context"

	"github.com/garrettladley/csverify/internal/storage"
)

type ProcessRequest struct {
	Body      []byte
	Signature string
}

type Service interface {
	// ProcessWebhook verifies the delivery, then records a receipt for it.
	// Verification failures are returned as *cswebhook.Error. A failure to
	// record the receipt is logged, not returned: the delivery is authentic
	// and the platform must not retry it.
	ProcessWebhook(ctx context.Context, req ProcessRequest) (storage.Receipt, error)
}
