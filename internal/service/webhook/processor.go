package webhook

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/garrettladley/csverify/internal/storage"
	"github.com/garrettladley/csverify/internal/xslog"
	cswebhook "github.com/garrettladley/csverify/webhook"
)

type Verifier interface {
	Verify(ctx context.Context, header string, event cswebhook.Event, opts ...cswebhook.Option) error
}

var _ Verifier = (*cswebhook.Verifier)(nil)

type Processor struct {
	verifier Verifier
	store    storage.ReceiptStore
	now      func() time.Time
	newID    func() string
}

var _ Service = (*Processor)(nil)

func NewProcessor(verifier Verifier, store storage.ReceiptStore) *Processor {
	return &Processor{
		verifier: verifier,
		store:    store,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (p *Processor) ProcessWebhook(ctx context.Context, req ProcessRequest) (storage.Receipt, error) {
	logger := xslog.FromContext(ctx)

	if err := p.verifier.Verify(ctx, req.Signature, req.Body); err != nil {
		return storage.Receipt{}, err
	}

	receipt := storage.Receipt{
		ID:         p.newID(),
		ReceivedAt: p.now().UTC().Truncate(time.Microsecond),
		Payload:    append([]byte(nil), req.Body...),
	}

	// the body already verified as a JSON object, so only type mismatches
	// in optional fields can fail here
	env, err := ParseEnvelope(req.Body)
	if err != nil {
		logger.WarnContext(ctx, "failed to parse webhook envelope", xslog.Error(err))
	} else {
		receipt.Module = env.Module
		receipt.Event = env.Event
		receipt.APIKey = env.APIKey
		receipt.EntryUID = env.SubjectUID()
		if t, ok := cswebhook.ParseTimestamp(env.TriggeredAt); ok {
			receipt.TriggeredAt = t.UTC()
		}
	}

	if err := p.store.Add(ctx, receipt); err != nil {
		logger.ErrorContext(ctx, "failed to store receipt",
			xslog.Error(err),
			xslog.ReceiptID(receipt.ID),
		)
	}

	logger.InfoContext(ctx, "processed webhook",
		xslog.ReceiptGroup(receipt.ID, receipt.Module, receipt.Event, receipt.TriggeredAt),
	)

	return receipt, nil
}
