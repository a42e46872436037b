package memory

import (
	"context"
	"sync"

	"github.com/dackJaniel/bogof-engine/internal/domain"
)

// NoticeRecorder collects notices per cart. Drain hands them to the caller
// and clears the queue, mirroring how a storefront displays pending notices
// once.
type NoticeRecorder struct {
	mu      sync.Mutex
	notices map[string][]domain.Notice
}

func NewNoticeRecorder() *NoticeRecorder {
	return &NoticeRecorder{notices: make(map[string][]domain.Notice)}
}

func (r *NoticeRecorder) Notify(_ context.Context, cartID string, notice domain.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices[cartID] = append(r.notices[cartID], notice)
	return nil
}

func (r *NoticeRecorder) Drain(_ context.Context, cartID string) ([]domain.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices[cartID]
	delete(r.notices, cartID)
	if out == nil {
		out = []domain.Notice{}
	}
	return out, nil
}

// Pending reports how many notices a cart has queued without draining them.
func (r *NoticeRecorder) Pending(cartID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices[cartID])
}
