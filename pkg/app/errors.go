package app

import (
	"net/http"

	apperrors "carpool/pkg/errors"
)

func notFound(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteError(w, apperrors.NotFound("Route "+r.URL.Path))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	err := apperrors.New(apperrors.CodeInvalidInput, "method "+r.Method+" not allowed on "+r.URL.Path)
	err.HTTPStatus = http.StatusMethodNotAllowed
	apperrors.WriteError(w, err)
}
