// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package realtime

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceLastConnectedWins(t *testing.T) {
	p := NewPresence()

	// N connects from the same user with no disconnects leave exactly
	// one entry, pointing at the most recent connection.
	for i := 0; i < 5; i++ {
		p.Register("alice", fmt.Sprintf("conn-%d", i))
	}

	connID, ok := p.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "conn-4", connID)
	assert.Equal(t, []string{"alice"}, p.Snapshot())
}

func TestPresenceRegisterReportsReplaced(t *testing.T) {
	p := NewPresence()

	replaced, ok := p.Register("alice", "conn-1")
	assert.False(t, ok)
	assert.Empty(t, replaced)

	replaced, ok = p.Register("alice", "conn-2")
	assert.True(t, ok)
	assert.Equal(t, "conn-1", replaced)
}

func TestPresenceStaleDisconnectDoesNotEvict(t *testing.T) {
	p := NewPresence()

	p.Register("alice", "conn-old")
	p.Register("alice", "conn-new")

	// The superseded connection disconnects late; the newer mapping
	// must survive.
	assert.False(t, p.Unregister("alice", "conn-old"))

	connID, ok := p.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "conn-new", connID)

	assert.True(t, p.Unregister("alice", "conn-new"))
	_, ok = p.Lookup("alice")
	assert.False(t, ok)
}

func TestPresenceSnapshotSorted(t *testing.T) {
	p := NewPresence()
	p.Register("carol", "c1")
	p.Register("alice", "c2")
	p.Register("bob", "c3")

	assert.Equal(t, []string{"alice", "bob", "carol"}, p.Snapshot())

	p.Unregister("bob", "c3")
	assert.Equal(t, []string{"alice", "carol"}, p.Snapshot())
}
