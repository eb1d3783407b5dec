// File: internal/notification/grouping.go
package notification

import (
	"sort"
	"time"
)

// DaySection is one display bucket of the arranged feed: the pinned section
// first, then one section per calendar day (today/yesterday/weekday/date).
type DaySection struct {
	Title  string  `json:"title"`
	Groups []Group `json:"groups"`
}

const pinnedSectionTitle = "Pinned"

// BuildGroups is the heart of the display pipeline: it filters the owner's
// cached rows down to bell-eligible ones and buckets them by grouping key.
// Pure function, no I/O; output order is deterministic (most recent primary
// first, ties broken by id).
func BuildGroups(rows []Notification) []Group {
	buckets := make(map[string][]*Notification)
	order := make([]string, 0)

	for i := range rows {
		n := &rows[i]
		if n.Category.IsSurfaceExcluded() {
			continue
		}
		key := n.GroupingKey()
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], n)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		members := buckets[key]
		primary := members[0]
		hasUnread := false
		isPinned := false
		for _, m := range members {
			if newerThan(m, primary) {
				primary = m
			}
			if !m.Read {
				hasUnread = true
			}
			if m.Pinned {
				isPinned = true
			}
		}
		groups = append(groups, Group{
			GroupingKey: key,
			Primary:     primary,
			TotalCount:  len(members),
			HasUnread:   hasUnread,
			IsPinned:    isPinned,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return newerThan(groups[i].Primary, groups[j].Primary)
	})
	return groups
}

// ArrangeSections lays groups out for display: pinned groups in a dedicated
// leading section, the rest bucketed by the primary notification's day, each
// day sorted descending by primary timestamp.
func ArrangeSections(groups []Group, now time.Time) []DaySection {
	var pinned []Group
	var regular []Group
	for _, g := range groups {
		if g.IsPinned {
			pinned = append(pinned, g)
		} else {
			regular = append(regular, g)
		}
	}

	sections := make([]DaySection, 0)
	if len(pinned) > 0 {
		sections = append(sections, DaySection{Title: pinnedSectionTitle, Groups: pinned})
	}

	var current *DaySection
	for _, g := range regular {
		title := dayBucketTitle(g.Primary.CreatedAt, now)
		if current == nil || current.Title != title {
			sections = append(sections, DaySection{Title: title})
			current = &sections[len(sections)-1]
		}
		current.Groups = append(current.Groups, g)
	}
	return sections
}

// dayBucketTitle renders the day bucket a timestamp belongs to, relative to
// now: "Today", "Yesterday", a weekday name within the past week, otherwise
// a short date.
func dayBucketTitle(ts, now time.Time) string {
	loc := now.Location()
	y, m, d := ts.In(loc).Date()
	tsDay := time.Date(y, m, d, 0, 0, 0, 0, loc)
	y, m, d = now.Date()
	nowDay := time.Date(y, m, d, 0, 0, 0, 0, loc)
	days := int(nowDay.Sub(tsDay).Hours() / 24)

	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return ts.In(now.Location()).Weekday().String()
	default:
		return ts.In(now.Location()).Format("Jan 2, 2006")
	}
}

// newerThan orders notifications by recency; equal timestamps fall back to
// id comparison so output stays reproducible.
func newerThan(a, b *Notification) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}
