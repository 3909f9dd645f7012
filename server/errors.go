package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carbocation/qfeatures/errs"
)

// statusOf maps library errors to HTTP status codes.
func statusOf(err error) (int, string) {
	var (
		notFound   *errs.NotFoundError
		invalid    *errs.InvalidPredicateError
		missingCol *errs.MissingColumnError
		dup        *errs.DuplicateNameError
		shape      *errs.ShapeMismatchError
		deps       *errs.HasDependentsError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, "NotFound"
	case errors.As(err, &invalid):
		return http.StatusBadRequest, "InvalidPredicate"
	case errors.As(err, &missingCol):
		return http.StatusBadRequest, "MissingColumn"
	case errors.As(err, &dup):
		return http.StatusConflict, "DuplicateName"
	case errors.As(err, &deps):
		return http.StatusConflict, "HasDependents"
	case errors.As(err, &shape):
		return http.StatusUnprocessableEntity, "ShapeMismatch"
	}
	return http.StatusInternalServerError, "Internal"
}

// JSONError reports err as JSON. An explicit code overrides the one derived
// from the error.
func JSONError(h *handler, w http.ResponseWriter, r *http.Request, err error, code ...int) {
	usedCode, kind := statusOf(err)
	if len(code) > 0 {
		usedCode = code[0]
	}

	h.Server.log.Println(r.Host, r.URL.Path, ":", usedCode, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(usedCode)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(struct {
		Success bool   `json:"success"`
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}{
		false,
		kind,
		err.Error(),
	})
}

func renderJSON(h *handler, w http.ResponseWriter, r *http.Request, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Server.log.Println(r.URL.Path, err)
	}
}
