package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/car-marketplace/internal/backend"
	"github.com/pribylovaa/car-marketplace/internal/cart"
	"github.com/pribylovaa/car-marketplace/internal/comments"
	"github.com/pribylovaa/car-marketplace/internal/pkg/requestid"
	"github.com/pribylovaa/car-marketplace/internal/session"
)

func TestToHTTP_BaseMapping(t *testing.T) {
	tcs := []struct {
		name       string
		in         error
		wantStatus int
		wantCode   string
	}{
		{"validation", fmt.Errorf("op: %w", comments.ErrValidation), http.StatusBadRequest, "validation_error"},
		{"invalid_item", &cart.RejectedError{Reason: "title is required", Err: cart.ErrInvalidItem}, http.StatusBadRequest, "validation_error"},
		{"already_in_cart", &cart.RejectedError{Reason: "already in cart", Err: cart.ErrAlreadyInCart}, http.StatusConflict, "already_in_cart"},
		{"auth_required", comments.ErrAuthRequired, http.StatusUnauthorized, "auth_required"},
		{"no_token", session.ErrNoToken, http.StatusUnauthorized, "auth_required"},
		{"session_expired", comments.ErrSessionExpired, http.StatusUnauthorized, "session_expired"},
		{"token_expired", session.ErrTokenExpired, http.StatusUnauthorized, "session_expired"},
		{"invalid_token", session.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
		{"forbidden", comments.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"not_found", comments.ErrNotFound, http.StatusNotFound, "not_found"},
		{"network", comments.ErrNetwork, http.StatusBadGateway, "network_error"},
		{"malformed", comments.ErrMalformedResponse, http.StatusBadGateway, "malformed_response"},
		{"upstream", comments.ErrUnknownServer, http.StatusBadGateway, "upstream_error"},
		{"stale", comments.ErrStale, http.StatusConflict, "stale"},
		{"canceled", context.Canceled, StatusClientClosedRequest, "canceled"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded"},
		{"storage", cart.ErrStorage, http.StatusInternalServerError, "internal"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			gotStatus, resp := ToHTTP(tc.in)
			require.Equal(t, tc.wantStatus, gotStatus)
			require.Equal(t, tc.wantCode, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestToHTTP_NilError_Returns500Internal(t *testing.T) {
	gotStatus, resp := ToHTTP(nil)
	require.Equal(t, http.StatusInternalServerError, gotStatus)
	require.Equal(t, "internal", resp.Error.Code)
	require.Equal(t, "internal error", resp.Error.Message)
}

func TestToHTTP_RejectedReasonIsMessage(t *testing.T) {
	_, resp := ToHTTP(fmt.Errorf("cart/AddItem: %w", &cart.RejectedError{Reason: "already in cart", Err: cart.ErrAlreadyInCart}))
	require.Equal(t, "already in cart", resp.Error.Message)
}

func TestToHTTP_MalformedCarriesRawBody(t *testing.T) {
	be := &backend.Error{Kind: backend.ErrMalformedResponse, Route: "comments.list", Status: 200, Body: "<html>oops</html>"}
	err := fmt.Errorf("comments/ListComments: %w: %w", comments.ErrMalformedResponse, be)

	status, resp := ToHTTP(err)
	require.Equal(t, http.StatusBadGateway, status)
	require.Equal(t, "<html>oops</html>", resp.Error.Details)

	// Для прочих ошибок тело не утекает.
	be.Kind = backend.ErrServer
	_, resp = ToHTTP(fmt.Errorf("x: %w: %w", comments.ErrUnknownServer, be))
	require.Empty(t, resp.Error.Details)
}

func TestToHTTP_RetryableOnlyForNetworkAndServer(t *testing.T) {
	cases := []struct {
		kind error
		want bool
	}{
		{backend.ErrNetwork, true},
		{backend.ErrServer, true},
		{backend.ErrForbidden, false},
		{backend.ErrMalformedResponse, false},
	}

	for _, tc := range cases {
		err := fmt.Errorf("comments/CreateComment: %w", &backend.Error{Kind: tc.kind, Route: "comments.create"})
		_, resp := ToHTTP(err)
		require.Equal(t, tc.want, resp.Error.Retryable, tc.kind.Error())
	}

	_, resp := ToHTTP(cart.ErrStorage)
	require.False(t, resp.Error.Retryable)
}

func TestToHTTP_DetailsTruncated(t *testing.T) {
	be := &backend.Error{Kind: backend.ErrMalformedResponse, Body: strings.Repeat("x", maxDetails+10)}
	_, resp := ToHTTP(fmt.Errorf("%w: %w", comments.ErrMalformedResponse, be))
	require.Len(t, resp.Error.Details, maxDetails)
}

func TestWriteError_SetsJSONAndRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req = req.WithContext(requestid.Into(req.Context(), "rid-1"))

	WriteError(rec, req, comments.ErrForbidden)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "forbidden", body.Error.Code)
	require.Equal(t, "rid-1", body.Error.RequestID)
}

func TestWriteError_RequestIDFromHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(requestid.Header, "hdr-rid")

	WriteError(rec, req, errors.New("x"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "hdr-rid", body.Error.RequestID)
}
