package middleware

import (
	"fmt"
	"net/http"

	apperrors "carpool/pkg/errors"
)

// MaxRequestSize rejects declared oversize bodies up front and caps the rest
// with http.MaxBytesReader so DecodeJSON fails once the limit is crossed.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				err := apperrors.New(apperrors.CodeInvalidInput,
					fmt.Sprintf("request body exceeds %d bytes", limit))
				err.HTTPStatus = http.StatusRequestEntityTooLarge
				apperrors.WriteError(w, err)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
