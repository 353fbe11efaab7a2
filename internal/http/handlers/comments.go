package handlers

import (
	"net/http"

	"github.com/pribylovaa/car-marketplace/internal/comments"
	apierrors "github.com/pribylovaa/car-marketplace/internal/errors"
	"github.com/pribylovaa/car-marketplace/internal/http/middleware"
	"github.com/pribylovaa/car-marketplace/internal/models"
	"github.com/pribylovaa/car-marketplace/internal/session"
)

// CommentTextRequest — тело создания, правки и ответа.
type CommentTextRequest struct {
	Text string `json:"text"`
}

// CommentsResponse — выдача ветки. Для режима tree Comments — отрисованные узлы
// (ThreadNode с depth/can_reply), для flat — комментарии как есть.
type CommentsResponse struct {
	ListingID    int64            `json:"listing_id"`
	Mode         models.FetchMode `json:"mode"`
	Count        int              `json:"count"`
	Comments     any              `json:"comments"`
	EmptyMessage string           `json:"empty_message,omitempty"`
}

// UpdatedTextResponse — ответ на правку, когда бэкенд подтвердил её без тела.
type UpdatedTextResponse struct {
	ID        int64  `json:"id"`
	ListingID int64  `json:"listing_id"`
	Text      string `json:"text"`
}

// sessionFor — сессия запроса для мутаций. Присланный, но битый или просроченный
// токен — это ошибка, а не анонимный вход.
func sessionFor(r *http.Request) (session.Session, error) {
	if err := middleware.AuthError(r.Context()); err != nil {
		return session.Anonymous, err
	}

	return session.From(r.Context()), nil
}

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	listingID, err := int64Param(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	mode, ok := models.ParseFetchMode(r.URL.Query().Get("mode"))
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument)
		return
	}

	list, err := h.Comments.ListComments(r.Context(), listingID, mode)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := CommentsResponse{ListingID: listingID, Mode: mode, Count: len(list), Comments: list}
	if mode == models.Hierarchical {
		out.Comments = comments.RenderForest(list, h.Comments.MaxDepth())
	}
	if len(list) == 0 {
		out.EmptyMessage = comments.EmptyMessage
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	listingID, err := int64Param(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in CommentTextRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument)
		return
	}

	sess, err := sessionFor(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	c, err := h.Comments.CreateComment(r.Context(), sess, listingID, in.Text)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

func (h *Handlers) UpdateComment(w http.ResponseWriter, r *http.Request) {
	listingID, err := int64Param(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	commentID, err := int64Param(r, "comment_id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in CommentTextRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument)
		return
	}

	sess, err := sessionFor(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	c, err := h.Comments.UpdateCommentText(r.Context(), sess, listingID, commentID, in.Text)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if c == nil {
		text, _ := h.Comments.ValidateText(in.Text)
		writeJSON(w, http.StatusOK, UpdatedTextResponse{ID: commentID, ListingID: listingID, Text: text})
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	listingID, err := int64Param(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	commentID, err := int64Param(r, "comment_id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	sess, err := sessionFor(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.Comments.DeleteComment(r.Context(), sess, listingID, commentID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ReplyToComment(w http.ResponseWriter, r *http.Request) {
	listingID, err := int64Param(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	parentID, err := int64Param(r, "comment_id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in CommentTextRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument)
		return
	}

	sess, err := sessionFor(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	c, err := h.Comments.ReplyToComment(r.Context(), sess, listingID, parentID, in.Text)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	// Бэкенд подтвердил ответ без тела: отдавать нечего.
	if c == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}
