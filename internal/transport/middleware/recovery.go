package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// RecoveryMiddleware turns a panicking handler into the generic error page.
func RecoveryMiddleware(logger *slog.Logger, errorPage func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.ErrorContext(r.Context(), "panic recovered",
					"error", rec,
					"method", r.Method,
					"url", r.URL.Path,
					"stack", string(debug.Stack()))

				if errorPage != nil {
					errorPage(w, r, panicError{value: rec})
					return
				}
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("Erro interno do servidor."))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type panicError struct {
	value interface{}
}

func (e panicError) Error() string {
	if err, ok := e.value.(error); ok {
		return "panic: " + err.Error()
	}
	if s, ok := e.value.(string); ok {
		return "panic: " + s
	}
	return "panic"
}
