package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pribylovaa/car-marketplace/internal/pkg/requestid"
	"github.com/stretchr/testify/require"
)

// newTestClient поднимает httptest-сервер с обработчиком h и клиент к нему.
func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/", UserAgent: "test-agent", Timeout: time.Second})
	require.NoError(t, err)

	return c
}

const flatJSON = `[
  {"idComentario": 2, "idUsuario": 7, "nombreUsuario": "Ana", "idPublicacion": 10, "texto": "новее", "fechaCreacion": "2024-05-02T10:00:00"},
  {"idComentario": 1, "idUsuario": 8, "nombreUsuario": "Luis", "idPublicacion": 10, "texto": "старее", "fechaCreacion": "2024-05-01T10:00:00Z"}
]`

func TestNew_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New(Options{BaseURL: "not a url"})
	require.Error(t, err)
}

func TestListComments_OK(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/publicaciones/10/comentarios", r.URL.Path)
		require.Equal(t, "rid-1", r.Header.Get(requestid.Header))
		require.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		require.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, flatJSON)
	})

	got, err := c.ListComments(requestid.Into(context.Background(), "rid-1"), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.EqualValues(t, 2, got[0].ID)
	require.Equal(t, "Ana", got[0].Author.DisplayName)
	require.EqualValues(t, 7, got[0].Author.UserID)
	require.Equal(t, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), got[0].CreatedAt)
	require.EqualValues(t, 10, got[1].ListingID)
}

func TestListComments_NullAndNoContent_Empty(t *testing.T) {
	t.Parallel()

	for name, h := range map[string]http.HandlerFunc{
		"null":       func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "null") },
		"empty list": func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "[]") },
		"204":        func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) },
	} {
		h := h
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := newTestClient(t, h).ListComments(context.Background(), 10)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Empty(t, got)
		})
	}
}

func TestListComments_Malformed_KeepsRawBody(t *testing.T) {
	t.Parallel()

	const raw = `<html>oops</html>`
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, raw)
	})

	_, err := c.ListComments(context.Background(), 10)
	require.ErrorIs(t, err, ErrMalformedResponse)

	var be *Error
	require.ErrorAs(t, err, &be)
	require.Equal(t, raw, be.Body)
	require.Equal(t, routeList, be.Route)
}

func TestListComments_MissingID_Malformed(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"idComentario": 1, "respuestas": [{"texto": "без id"}]}]`)
	})

	_, err := c.ListCommentTree(context.Background(), 10)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestListCommentTree_Nested(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/publicaciones/5/comentarios/jerarquicos", r.URL.Path)
		_, _ = io.WriteString(w, `[{"idComentario": 1, "texto": "root", "respuestas": [
			{"idComentario": 2, "texto": "child", "respuestas": [{"idComentario": 3, "texto": "grandchild"}]}
		]}]`)
	})

	got, err := c.ListCommentTree(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Replies, 1)
	require.Len(t, got[0].Replies[0].Replies, 1)
	require.EqualValues(t, 3, got[0].Replies[0].Replies[0].ID)
	require.EqualValues(t, 5, got[0].Replies[0].Replies[0].ListingID)
}

func TestErrorStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusConflict, ErrServer},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, "  upstream says no \n")
			})

			err := c.DeleteComment(context.Background(), "tok", 1, 2)
			require.ErrorIs(t, err, tc.want)

			var be *Error
			require.ErrorAs(t, err, &be)
			require.Equal(t, tc.status, be.Status)
			require.Equal(t, "upstream says no", be.Body)
		})
	}
}

func TestCreateComment_SendsBearerAndBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/publicaciones/10/comentarios", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req createCommentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.EqualValues(t, 7, req.UserID)
		require.Equal(t, "hola", req.Text)

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"idComentario": 99, "idUsuario": 7, "nombreUsuario": "Ana", "texto": "hola"}`)
	})

	got, err := c.CreateComment(context.Background(), "tok", 10, 7, "hola")
	require.NoError(t, err)
	require.EqualValues(t, 99, got.ID)
	require.EqualValues(t, 10, got.ListingID)
}

func TestCreateComment_EmptyBody_Malformed(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	_, err := c.CreateComment(context.Background(), "tok", 10, 7, "hola")
	require.ErrorIs(t, err, ErrMalformedResponse)
}

// Ответ сохранён бэкендом при любом 2xx: пустое тело или null — успех без сущности.
func TestReplyToComment_NoBody_OK(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{"empty": "", "null": "null"} {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusCreated)
				_, _ = io.WriteString(w, body)
			})

			got, err := c.ReplyToComment(context.Background(), "tok", 10, 3, 7, "re")
			require.NoError(t, err)
			require.Nil(t, got)
		})
	}
}

func TestReplyToComment_Path(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/publicaciones/10/comentarios/3/respuestas", r.URL.Path)
		_, _ = io.WriteString(w, `{"idComentario": 4, "texto": "re"}`)
	})

	got, err := c.ReplyToComment(context.Background(), "tok", 10, 3, 7, "re")
	require.NoError(t, err)
	require.EqualValues(t, 4, got.ID)
}

func TestUpdateCommentText(t *testing.T) {
	t.Parallel()

	t.Run("body", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPut, r.Method)
			require.Equal(t, "/api/publicaciones/10/comentarios/3/texto", r.URL.Path)

			var req updateTextRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "new", req.Text)

			_, _ = io.WriteString(w, `{"idComentario": 3, "texto": "new"}`)
		})

		got, err := c.UpdateCommentText(context.Background(), "tok", 10, 3, "new")
		require.NoError(t, err)
		require.Equal(t, "new", got.Text)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		got, err := c.UpdateCommentText(context.Background(), "tok", 10, 3, "new")
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("null body", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "null")
		})

		got, err := c.UpdateCommentText(context.Background(), "tok", 10, 3, "new")
		require.NoError(t, err)
		require.Nil(t, got)
	})
}

func TestNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url})
	require.NoError(t, err)

	_, err = c.ListComments(context.Background(), 1)
	require.ErrorIs(t, err, ErrNetwork)
	require.True(t, IsTransient(err))
}

func TestBackendTimeout_IsNetwork(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := New(Options{BaseURL: srv.URL, Timeout: 30 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.ListComments(context.Background(), 1)
	require.ErrorIs(t, err, ErrNetwork)

	// Дедлайн вызывающего длиннее: таймаут бэкенда всё равно срабатывает.
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err = c.ListComments(ctx, 1)
	require.ErrorIs(t, err, ErrNetwork)
}

func TestCallerCancel_ReturnsContextError(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := New(Options{BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = c.ListComments(ctx, 1)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotErrorIs(t, err, ErrNetwork)
}
