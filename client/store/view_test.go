// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlinknet/chatlink/backend/models"
)

var viewEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// msg builds a test message n minutes after the epoch.
func msg(id string, n int, sender, receiver string) models.Message {
	return models.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Body:       id,
		Seq:        int64(n),
		CreatedAt:  viewEpoch.Add(time.Duration(n) * time.Minute),
	}
}

// newestFirst builds a server-order page from messages listed oldest
// first.
func newestFirst(msgs ...models.Message) []models.Message {
	out := make([]models.Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}

func bodies(msgs []models.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Body
	}
	return out
}

func TestViewMergesPagesBeforeLive(t *testing.T) {
	v := NewView()
	v.SelectPartner("bob")

	// First fetch: the newest page, arriving newest first.
	v.PrependPage(newestFirst(
		msg("m3", 3, "bob", "alice"),
		msg("m4", 4, "alice", "bob"),
	))

	// Live messages observed after the view opened.
	require.True(t, v.AppendLive(msg("m5", 5, "bob", "alice")))
	require.True(t, v.AppendLive(msg("m6", 6, "alice", "bob")))

	// Backward load: an older page prepends before everything.
	v.PrependPage(newestFirst(
		msg("m1", 1, "alice", "bob"),
		msg("m2", 2, "bob", "alice"),
	))

	assert.Equal(t, []string{"m1", "m2", "m3", "m4", "m5", "m6"}, bodies(v.Messages()))
}

func TestViewRejectsDuplicatesAcrossArenas(t *testing.T) {
	v := NewView()
	v.SelectPartner("bob")

	m := msg("m1", 1, "bob", "alice")
	v.PrependPage(newestFirst(m))

	// A relay echo of an already-paginated message is dropped.
	assert.False(t, v.AppendLive(m))
	// A page overlapping the live list is trimmed.
	require.True(t, v.AppendLive(msg("m2", 2, "bob", "alice")))
	v.PrependPage(newestFirst(m, msg("m0", 0, "alice", "bob")))

	assert.Equal(t, []string{"m0", "m1", "m2"}, bodies(v.Messages()))
}

func TestViewIgnoresMessagesForOtherConversations(t *testing.T) {
	v := NewView()
	v.SelectPartner("bob")

	assert.False(t, v.AppendLive(msg("m1", 1, "carol", "alice")))
	assert.Empty(t, v.Messages())
}

func TestViewResetOnPartnerSwitch(t *testing.T) {
	v := NewView()
	v.SelectPartner("bob")
	v.PrependPage(newestFirst(msg("m1", 1, "bob", "alice")))
	v.AppendLive(msg("m2", 2, "bob", "alice"))
	v.SetTyping(true)

	v.SelectPartner("carol")

	assert.Empty(t, v.Messages())
	assert.False(t, v.Typing())
	assert.Equal(t, "carol", v.PartnerID())

	// The old partner's ids are forgotten with the switch, so a
	// re-selected conversation re-fetches them cleanly.
	v.SelectPartner("bob")
	v.PrependPage(newestFirst(msg("m1", 1, "bob", "alice")))
	assert.Equal(t, []string{"m1"}, bodies(v.Messages()))
}

func TestViewConcurrentAppendAndRender(t *testing.T) {
	v := NewView()
	v.SelectPartner("bob")

	// Socket-relayed messages and local send echoes land on different
	// goroutines; renders interleave with both.
	const perSide = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			v.AppendLive(msg(fmt.Sprintf("in-%02d", i), i, "bob", "me"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			v.AppendLive(msg(fmt.Sprintf("out-%02d", i), perSide+i, "me", "bob"))
			_ = v.Messages()
		}
	}()
	wg.Wait()

	assert.Equal(t, 2*perSide, v.Len())
}

func TestViewClearKeepsPartner(t *testing.T) {
	v := NewView()
	v.SelectPartner("bob")
	for i := 0; i < 3; i++ {
		v.AppendLive(msg(fmt.Sprintf("m%d", i), i, "bob", "alice"))
	}

	v.Clear()

	assert.Empty(t, v.Messages())
	assert.Equal(t, "bob", v.PartnerID())
	assert.Zero(t, v.Len())
}
