package middleware

import (
	"net/http"

	"github.com/garrettladley/csverify/internal/xerrors"
	"github.com/garrettladley/csverify/internal/xslog"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}
			xslog.FromContext(r.Context()).ErrorContext(
				r.Context(),
				"panic recovered",
				xslog.RequestGroup(r),
				xslog.ErrorGroupWithStack(err),
			)
			xerrors.WriteError(r.Context(), w, xerrors.Internal())
		}()
		next.ServeHTTP(w, r)
	})
}
