// Package roster orders and filters roster rows for presentation.
package roster

import (
	"sort"

	"github.com/roach88/rollcall/internal/attendance"
)

// UnknownRank is the rank of any status outside the known set.
const UnknownRank = 3

// Rank returns the display priority of a status. Lower ranks sort first.
func Rank(s attendance.Status) int {
	switch s {
	case attendance.StatusActive:
		return 0
	case attendance.StatusLongAbsent:
		return 1
	case attendance.StatusTransferred:
		return 2
	}
	return UnknownRank
}

// Sort returns a copy of members ordered by Rank.
// Members of equal rank keep their roster order.
func Sort(members []attendance.Member) []attendance.Member {
	out := append([]attendance.Member(nil), members...)
	sort.SliceStable(out, func(i, j int) bool {
		return Rank(out[i].Status) < Rank(out[j].Status)
	})
	return out
}

// Filter returns the members of (year, group) in roster order.
// Every status is included.
func Filter(members []attendance.Member, year, group string) []attendance.Member {
	out := make([]attendance.Member, 0)
	for _, m := range members {
		if m.Year == year && m.Group == group {
			out = append(out, m)
		}
	}
	return out
}

// List filters to (year, group) and sorts by rank.
func List(members []attendance.Member, year, group string) []attendance.Member {
	return Sort(Filter(members, year, group))
}

// Years returns the distinct years of the roster, most recent first.
func Years(members []attendance.Member) []string {
	seen := make(map[string]bool)
	years := make([]string, 0)
	for _, m := range members {
		if !seen[m.Year] {
			seen[m.Year] = true
			years = append(years, m.Year)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years
}

// Groups returns the distinct groups of year in ascending order.
// Numeric group names compare numerically so "10" follows "9".
func Groups(members []attendance.Member, year string) []string {
	seen := make(map[string]bool)
	groups := make([]string, 0)
	for _, m := range members {
		if m.Year == year && !seen[m.Group] {
			seen[m.Group] = true
			groups = append(groups, m.Group)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		return lessGroup(groups[i], groups[j])
	})
	return groups
}

func lessGroup(a, b string) bool {
	an, aok := number(a)
	bn, bok := number(b)
	switch {
	case aok && bok:
		if an != bn {
			return an < bn
		}
		return a < b
	case aok:
		return true
	case bok:
		return false
	}
	return a < b
}

func number(s string) (int, bool) {
	if s == "" || len(s) > 9 {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
