package models

import "time"

// MaxCommentLen — максимальная длина текста комментария (в символах).
const MaxCommentLen = 2000

// FetchMode — форма выдачи комментариев бэкендом.
type FetchMode string

const (
	// Flat — плоский список корневых комментариев (сначала новые).
	Flat FetchMode = "flat"
	// Hierarchical — дерево с вложенными ответами.
	Hierarchical FetchMode = "tree"
)

// ParseFetchMode разбирает режим из query-параметра; пустое значение -> Flat.
func ParseFetchMode(s string) (FetchMode, bool) {
	switch FetchMode(s) {
	case "", Flat:
		return Flat, true
	case Hierarchical, "hierarchical":
		return Hierarchical, true
	default:
		return "", false
	}
}

// AuthorRef — ссылка на автора: идентификатор и отображаемое имя.
type AuthorRef struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Comment — комментарий к объявлению.
//   - ID назначает бэкенд;
//   - Replies заполнен только в иерархическом режиме.
type Comment struct {
	ID        int64     `json:"id"`
	Author    AuthorRef `json:"author"`
	ListingID int64     `json:"listing_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Replies   []Comment `json:"replies,omitempty"`
}
