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

	"github.com/chatlinknet/chatlink/backend/models"
)

// Sender performs the message-mutating API calls. client.API satisfies
// it through a thin adapter.
type Sender interface {
	Send(ctx context.Context, receiverID, message, image, imageContentType string) (*models.Message, error)
	Clear(ctx context.Context, partnerID string) error
}

// Controller wires the view, the pager and the typing signaler into the
// conversation lifecycle: partner selection, sending with local echo,
// optimistic clear with re-fetch on failure, and the socket event
// reactions.
type Controller struct {
	view   *View
	pager  *Pager
	typing *TypingSignaler
	sender Sender
}

func NewController(view *View, pager *Pager, typing *TypingSignaler, sender Sender) *Controller {
	return &Controller{view: view, pager: pager, typing: typing, sender: sender}
}

// View exposes the merged view for rendering.
func (c *Controller) View() *View {
	return c.view
}

// Pager exposes pagination state, e.g. to hide the load-more sentinel
// once history is exhausted.
func (c *Controller) Pager() *Pager {
	return c.pager
}

// SelectPartner opens a conversation: both arenas reset, the typing
// session for the previous partner ends, and the newest page is
// fetched with a nil cursor.
func (c *Controller) SelectPartner(ctx context.Context, partnerID string) error {
	c.view.SelectPartner(partnerID)
	c.pager.Select(partnerID)
	c.typing.SetPartner(partnerID)

	_, err := c.pager.LoadOlder(ctx, c.view)
	return err
}

// LoadOlder pulls the next older page, for the scroll-top trigger.
func (c *Controller) LoadOlder(ctx context.Context) (bool, error) {
	return c.pager.LoadOlder(ctx, c.view)
}

// Send posts a message to the selected partner. The created message is
// appended to the live list straight from the API response; the relay
// only notifies the receiver, so no socket round-trip is awaited. On
// failure nothing is appended and the caller keeps the compose input
// populated for manual retry.
func (c *Controller) Send(ctx context.Context, message, image, imageContentType string) (*models.Message, error) {
	partnerID := c.view.PartnerID()
	if partnerID == "" {
		return nil, models.Validationf("no conversation selected")
	}

	c.typing.OnSend()

	msg, err := c.sender.Send(ctx, partnerID, message, image, imageContentType)
	if err != nil {
		return nil, err
	}

	c.view.AppendLive(*msg)
	return msg, nil
}

// OnInput forwards a local compose-input change to the typing
// lifecycle.
func (c *Controller) OnInput() {
	c.typing.OnInput()
}

// ClearChat optimistically empties the view and disables backward
// pagination before the request resolves. On failure the local state is
// not trusted: the conversation is re-fetched from scratch, and the
// error is surfaced.
func (c *Controller) ClearChat(ctx context.Context) error {
	partnerID := c.view.PartnerID()
	if partnerID == "" {
		return models.Validationf("no conversation selected")
	}

	// Disable before emptying: an in-flight backward load that resolves
	// in between is then discarded rather than merged into the cleared
	// view.
	c.pager.Disable()
	c.view.Clear()

	if err := c.sender.Clear(ctx, partnerID); err != nil {
		// Re-query rather than undo: the store is the source of truth.
		if selErr := c.SelectPartner(ctx, partnerID); selErr != nil {
			return selErr
		}
		return err
	}
	return nil
}

// HandleNewMessage reacts to a relayed newMessage event. Messages for a
// conversation other than the selected one are ignored here; a fuller
// client would surface them as unread badges.
func (c *Controller) HandleNewMessage(msg models.Message) bool {
	return c.view.AppendLive(msg)
}

// HandleTyping reacts to a remote typing event.
func (c *Controller) HandleTyping(senderID string) {
	if senderID == c.view.PartnerID() {
		c.view.SetTyping(true)
	}
}

// HandleStopTyping reacts to a remote stopTyping event.
func (c *Controller) HandleStopTyping(senderID string) {
	if senderID == c.view.PartnerID() {
		c.view.SetTyping(false)
	}
}

// HandleClearedChat reacts to the partner clearing the conversation:
// the same reset as a local clear, with no request of our own.
func (c *Controller) HandleClearedChat() {
	c.pager.Disable()
	c.view.Clear()
}
