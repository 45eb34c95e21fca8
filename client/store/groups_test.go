// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlinknet/chatlink/backend/models"
)

func at(ts time.Time, id string) models.Message {
	return models.Message{ID: id, Body: id, CreatedAt: ts}
}

func TestGroupByDateBucketsByCalendarDay(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 0, 10, 0, 0, time.UTC)

	msgs := []models.Message{
		at(day1, "m1"),
		at(day1.Add(5*time.Minute), "m2"),
		at(day2, "m3"), // ten minutes later, but a new calendar day
	}

	groups := GroupByDate(msgs, time.UTC)
	require.Len(t, groups, 2)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), groups[0].Date)
	assert.Equal(t, []string{"m1", "m2"}, bodies(groups[0].Messages))
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), groups[1].Date)
	assert.Equal(t, []string{"m3"}, bodies(groups[1].Messages))
}

func TestGroupByDateUsesOneLocationConsistently(t *testing.T) {
	// 23:30 UTC on June 1st is already June 2nd in UTC+2: the bucket
	// must follow the grouping location, not the stored zone.
	plus2 := time.FixedZone("UTC+2", 2*3600)
	ts := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)

	groups := GroupByDate([]models.Message{at(ts, "m1")}, plus2)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Date.Day())
}

func TestGroupByDatePreservesOrder(t *testing.T) {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	var msgs []models.Message
	for i := 0; i < 3; i++ {
		for h := 0; h < 2; h++ {
			msgs = append(msgs, at(base.AddDate(0, 0, i).Add(time.Duration(h)*time.Hour),
				string(rune('a'+i*2+h))))
		}
	}

	groups := GroupByDate(msgs, time.UTC)
	require.Len(t, groups, 3)

	var flattened []string
	for _, g := range groups {
		flattened = append(flattened, bodies(g.Messages)...)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, flattened)
}

func TestGroupByDateEmpty(t *testing.T) {
	assert.Empty(t, GroupByDate(nil, time.UTC))
}
