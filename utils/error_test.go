package utils

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Invalid("bad input"), http.StatusBadRequest},
		{Conflict("duplicate sku"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Unauthorized("no token"), http.StatusUnauthorized},
		{Upstream("gateway down", errors.New("timeout")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{ErrorRecordNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestUpstreamUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := Upstream("gateway down", cause)
	if !errors.Is(err, cause) {
		t.Fatal("Upstream should wrap its cause")
	}
}
