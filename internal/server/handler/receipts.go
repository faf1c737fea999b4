package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/garrettladley/csverify/internal/storage"
	"github.com/garrettladley/csverify/internal/validator"
	"github.com/garrettladley/csverify/internal/xerrors"
	"github.com/garrettladley/csverify/internal/xhttp"
	"github.com/garrettladley/csverify/internal/xslog"
)

const defaultReceiptLimit = 100

type Receipts struct {
	store storage.ReceiptStore
}

func NewReceipts(store storage.ReceiptStore) *Receipts {
	return &Receipts{store: store}
}

type receiptsResponse struct {
	Receipts []storage.Receipt `json:"receipts"`
	// Next is the since value for the following page, empty when none.
	Next string `json:"next,omitempty"`
}

type listQuery struct {
	since time.Time
	limit int

	rawSince string
	rawLimit string
}

var _ validator.Validator = (*listQuery)(nil)

func parseListQuery(q url.Values) *listQuery {
	lq := &listQuery{
		limit:    defaultReceiptLimit,
		rawSince: q.Get("since"),
		rawLimit: q.Get("limit"),
	}
	if lq.rawSince != "" {
		lq.since, _ = time.Parse(time.RFC3339Nano, lq.rawSince)
	}
	if lq.rawLimit != "" {
		lq.limit, _ = strconv.Atoi(lq.rawLimit)
	}
	return lq
}

func (q *listQuery) Validate() map[string]string {
	errs := make(map[string]string)
	if q.rawSince != "" {
		if _, err := time.Parse(time.RFC3339Nano, q.rawSince); err != nil {
			errs["since"] = "must be an RFC 3339 timestamp"
		}
	}
	if q.limit <= 0 || q.limit > storage.MaxListLimit {
		errs["limit"] = "must be an integer between 1 and " + strconv.Itoa(storage.MaxListLimit)
	}
	return errs
}

// HandleList handles GET /receipts requests.
// Query params: since (RFC 3339, exclusive), limit (1-1000, default 100)
func (h *Receipts) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := parseListQuery(r.URL.Query())
	if err := validator.Validate(q, xerrors.WithMessage("invalid query parameters")); err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}

	receipts, err := h.store.ListSince(ctx, q.since, q.limit)
	if err != nil {
		xerrors.WriteError(ctx, w, xerrors.Internal(
			xerrors.WithMessage("failed to list receipts"),
			xerrors.WithCause(err),
		))
		return
	}

	xslog.FromContext(ctx).DebugContext(ctx, "listed receipts",
		xslog.Since(q.since),
		xslog.Count(len(receipts)),
	)

	resp := receiptsResponse{Receipts: receipts}
	if resp.Receipts == nil {
		resp.Receipts = []storage.Receipt{}
	}
	if len(receipts) == q.limit {
		resp.Next = receipts[len(receipts)-1].ReceivedAt.Format(time.RFC3339Nano)
	}
	xhttp.WriteOK(w, resp)
}
