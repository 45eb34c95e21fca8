// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package store

// ScrollAnchor preserves the user's visual position while older content
// is prepended above the viewport. Record the content height before the
// backward load resolves; after the new page renders, shift the scroll
// offset by exactly the height the new content introduced. The delta is
// correct even if the user kept scrolling during the round-trip, since
// prepended content moves every existing position down by the same
// amount.
type ScrollAnchor struct {
	beforeHeight float64
	armed        bool
}

// Record captures the scrollable content height just before a backward
// load is issued.
func (a *ScrollAnchor) Record(contentHeight float64) {
	a.beforeHeight = contentHeight
	a.armed = true
}

// Adjust returns the offset delta to apply after the new page rendered,
// and disarms the anchor. Zero when nothing was recorded.
func (a *ScrollAnchor) Adjust(newContentHeight float64) float64 {
	if !a.armed {
		return 0
	}
	a.armed = false
	return newContentHeight - a.beforeHeight
}

// DefaultNearBottomThreshold is how close to the bottom, in content
// units, the view still counts as "at the bottom" for auto-scroll.
const DefaultNearBottomThreshold = 100

// ShouldAutoScroll decides whether a newly arrived live message scrolls
// the view to the bottom: always for the user's own message, otherwise
// only when the view was already near the bottom before it arrived.
// Backward-pagination loads never come through here.
func ShouldAutoScroll(ownMessage bool, distanceFromBottom, threshold float64) bool {
	if ownMessage {
		return true
	}
	return distanceFromBottom <= threshold
}
