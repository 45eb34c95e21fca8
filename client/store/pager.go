// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/chatlinknet/chatlink/backend/models"
)

// Fetcher retrieves one cursor page of history with a partner, newest
// first. client.API satisfies this through a thin adapter.
type Fetcher interface {
	FetchPage(ctx context.Context, partnerID string, cursor *time.Time, limit int) (*models.MessagePage, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, partnerID string, cursor *time.Time, limit int) (*models.MessagePage, error)

func (f FetcherFunc) FetchPage(ctx context.Context, partnerID string, cursor *time.Time, limit int) (*models.MessagePage, error) {
	return f(ctx, partnerID, cursor, limit)
}

// Pager drives backward pagination for the selected conversation. Each
// partner switch bumps a generation counter; a fetch that resolves after
// its generation has passed belongs to a deselected partner and is
// discarded instead of merged into the now-current view.
type Pager struct {
	fetch Fetcher
	limit int

	mu         sync.Mutex
	partnerID  string
	generation uint64
	cursor     *time.Time
	exhausted  bool
	loading    bool
}

func NewPager(fetch Fetcher, limit int) *Pager {
	return &Pager{fetch: fetch, limit: limit}
}

// Select points the pager at a new conversation and re-arms pagination
// from the newest messages (cursor = nil). Any in-flight fetch for the
// previous partner becomes stale.
func (p *Pager) Select(partnerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.partnerID = partnerID
	p.generation++
	p.cursor = nil
	p.exhausted = false
	p.loading = false
}

// Disable turns backward pagination off until the next Select, used by
// the optimistic clear-chat reset. It also bumps the generation, so a
// load in flight when the chat was cleared is discarded instead of
// repopulating the emptied view.
func (p *Pager) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.exhausted = true
	p.loading = false
}

// Exhausted reports whether older history may still exist.
func (p *Pager) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// LoadOlder fetches the next older page and prepends it to view.
// Returns whether a page was applied. A failed fetch leaves rendered
// messages untouched and pagination re-armed for retry; a stale
// response (partner switched mid-flight) is silently dropped.
func (p *Pager) LoadOlder(ctx context.Context, view *View) (bool, error) {
	p.mu.Lock()
	if p.exhausted || p.loading || p.partnerID == "" {
		p.mu.Unlock()
		return false, nil
	}
	gen := p.generation
	partnerID := p.partnerID
	cursor := p.cursor
	p.loading = true
	p.mu.Unlock()

	page, err := p.fetch.FetchPage(ctx, partnerID, cursor, p.limit)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		// Stale response for a since-deselected partner.
		return false, nil
	}
	p.loading = false

	if err != nil {
		return false, err
	}

	view.PrependPage(page.Messages)
	p.cursor = page.NextCursor
	if page.NextCursor == nil {
		p.exhausted = true
	}
	return len(page.Messages) > 0, nil
}
