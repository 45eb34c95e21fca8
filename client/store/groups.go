// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package store

import (
	"time"

	"github.com/chatlinknet/chatlink/backend/models"
)

// DateGroup is one contiguous calendar-date bucket of the merged
// sequence; the view renders one date separator per group.
type DateGroup struct {
	Date     time.Time // midnight of the bucket's day in the grouping location
	Messages []models.Message
}

// GroupByDate buckets an already-ordered message sequence by calendar
// date. The same location is used for bucketing and display so a
// message never renders under one date and groups under another.
// Chronological order is preserved across and within buckets.
func GroupByDate(msgs []models.Message, loc *time.Location) []DateGroup {
	if loc == nil {
		loc = time.Local
	}

	var groups []DateGroup
	for _, msg := range msgs {
		day := msg.CreatedAt.In(loc)
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

		if len(groups) == 0 || !groups[len(groups)-1].Date.Equal(day) {
			groups = append(groups, DateGroup{Date: day})
		}
		last := &groups[len(groups)-1]
		last.Messages = append(last.Messages, msg)
	}
	return groups
}
