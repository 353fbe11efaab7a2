package comments

import (
	"time"

	"github.com/pribylovaa/car-marketplace/internal/models"
)

// EmptyMessage — что показать, когда комментариев нет.
const EmptyMessage = "no comments yet"

// ThreadNode — комментарий, подготовленный к отрисовке.
//
// CanReply = Depth < maxDepth. Ответы отрисовываются всегда, на любой глубине;
// ограничена только возможность ответить.
type ThreadNode struct {
	ID        int64            `json:"id"`
	Author    models.AuthorRef `json:"author"`
	ListingID int64            `json:"listing_id"`
	Text      string           `json:"text"`
	CreatedAt time.Time        `json:"created_at"`
	Depth     int              `json:"depth"`
	CanReply  bool             `json:"can_reply"`
	Replies   []ThreadNode     `json:"replies"`
}

// RenderThread отрисовывает комментарий c и всех его потомков начиная с глубины depth.
func RenderThread(c models.Comment, depth, maxDepth int) ThreadNode {
	n := ThreadNode{
		ID:        c.ID,
		Author:    c.Author,
		ListingID: c.ListingID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		Depth:     depth,
		CanReply:  depth < maxDepth,
		Replies:   make([]ThreadNode, 0, len(c.Replies)),
	}

	for _, r := range c.Replies {
		n.Replies = append(n.Replies, RenderThread(r, depth+1, maxDepth))
	}

	return n
}

// RenderForest отрисовывает корни на глубине 0.
func RenderForest(list []models.Comment, maxDepth int) []ThreadNode {
	out := make([]ThreadNode, 0, len(list))
	for _, c := range list {
		out = append(out, RenderThread(c, 0, maxDepth))
	}

	return out
}
