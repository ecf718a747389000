package middleware

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/service"
	"github.com/it-all/slim-postgres/internal/utils"
)

// ErrorReporter records errors nobody expected
type ErrorReporter interface {
	Report(ctx context.Context, info service.RequestInfo, err error)
	ReportPanic(ctx context.Context, info service.RequestInfo, recovered interface{}, stack []byte)
	FatalMessage() string
}

// Recovery is the global error handler for panics. The panic is reported with
// its stack and the administrator gets a 500 with the configured fatal message.
func Recovery(reporter ErrorReporter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				// let the server abort the connection
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				reporter.ReportPanic(r.Context(), RequestInfo(r), recovered, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, constants.CodeInternalError, reporter.FatalMessage(), nil)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// HandleError answers err. Expected kinds (validation, not found, unallowed
// action...) become their AppError response. Anything else is reported and
// answered with the fatal message.
func HandleError(w http.ResponseWriter, r *http.Request, reporter ErrorReporter, err error) {
	appErr := utils.ParseError(err)
	if appErr.StatusCode < http.StatusInternalServerError {
		utils.ErrorFromAppError(w, appErr)
		return
	}

	reporter.Report(r.Context(), RequestInfo(r), err)
	utils.Error(w, http.StatusInternalServerError, constants.CodeInternalError, reporter.FatalMessage(), nil)
}
