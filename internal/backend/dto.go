package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/car-marketplace/internal/models"
)

// commentDTO — комментарий в формате бэкенда.
type commentDTO struct {
	ID        int64        `json:"idComentario"`
	UserID    int64        `json:"idUsuario"`
	UserName  string       `json:"nombreUsuario"`
	ListingID int64        `json:"idPublicacion"`
	Text      string       `json:"texto"`
	CreatedAt backendTime  `json:"fechaCreacion"`
	Replies   []commentDTO `json:"respuestas"`
}

// createCommentRequest — тело POST комментария и ответа.
type createCommentRequest struct {
	UserID int64  `json:"idUsuario"`
	Text   string `json:"texto"`
}

// updateTextRequest — тело PUT .../texto.
type updateTextRequest struct {
	Text string `json:"texto"`
}

// backendTime принимает RFC3339 и «беззонный» формат, который отдаёт бэкенд.
type backendTime struct{ time.Time }

var backendTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *backendTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("fechaCreacion: %w", err)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range backendTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}

	return fmt.Errorf("fechaCreacion: unsupported time format %q", s)
}

// toModel конвертирует DTO в доменную модель рекурсивно.
// fallbackListing подставляется, если бэкенд не вернул idPublicacion.
func (d commentDTO) toModel(fallbackListing int64) models.Comment {
	listingID := d.ListingID
	if listingID == 0 {
		listingID = fallbackListing
	}

	c := models.Comment{
		ID:        d.ID,
		Author:    models.AuthorRef{UserID: d.UserID, DisplayName: d.UserName},
		ListingID: listingID,
		Text:      d.Text,
		CreatedAt: d.CreatedAt.Time,
	}

	if len(d.Replies) > 0 {
		c.Replies = make([]models.Comment, 0, len(d.Replies))
		for _, r := range d.Replies {
			c.Replies = append(c.Replies, r.toModel(listingID))
		}
	}

	return c
}

// checkShape проверяет, что у каждого узла дерева есть идентификатор.
func (d commentDTO) checkShape() error {
	if d.ID <= 0 {
		return fmt.Errorf("comment without idComentario")
	}

	for _, r := range d.Replies {
		if err := r.checkShape(); err != nil {
			return err
		}
	}

	return nil
}
