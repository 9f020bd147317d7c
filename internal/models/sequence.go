package models

import (
	"sort"
	"strings"
)

// Sequenced is implemented by catalog nodes that have a position within their parent.
type Sequenced interface {
	SequenceName() string
	SequenceRank() *int
}

var namedYearRanks = map[string]int{
	"first year":  1,
	"second year": 2,
	"third year":  3,
	"fourth year": 4,
	"final year":  5,
}

// NamedYearRank returns the legacy rank of a free-text year name.
func NamedYearRank(name string) (int, bool) {
	rank, ok := namedYearRanks[strings.ToLower(strings.TrimSpace(name))]
	return rank, ok
}

// CompareSequence orders academic years and semesters. Explicit ranks win; entries
// without a rank fall back to the named-year table and then to natural order.
// Every "next semester / next year" decision goes through this function.
func CompareSequence(a, b Sequenced) int {
	ra, rb := a.SequenceRank(), b.SequenceRank()
	switch {
	case ra != nil && rb != nil:
		if c := compareInt(*ra, *rb); c != 0 {
			return c
		}
		return compareNames(a.SequenceName(), b.SequenceName())
	case ra != nil:
		return -1
	case rb != nil:
		return 1
	}
	return compareNames(a.SequenceName(), b.SequenceName())
}

func compareNames(a, b string) int {
	na, okA := NamedYearRank(a)
	nb, okB := NamedYearRank(b)
	switch {
	case okA && okB:
		return compareInt(na, nb)
	case okA:
		return -1
	case okB:
		return 1
	}
	if c := NaturalCompare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// NaturalCompare compares strings treating digit runs as numbers ("Semester 2" < "Semester 10").
func NaturalCompare(a, b string) int {
	for a != "" && b != "" {
		ca, cb := a[0], b[0]
		if isDigit(ca) && isDigit(cb) {
			da, restA := digitRun(a)
			db, restB := digitRun(b)
			if c := compareDigits(da, db); c != 0 {
				return c
			}
			a, b = restA, restB
			continue
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		a, b = a[1:], b[1:]
	}
	return compareInt(len(a), len(b))
}

func compareDigits(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if c := compareInt(len(ta), len(tb)); c != 0 {
		return c
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	return compareInt(len(a), len(b))
}

func digitRun(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortAcademicYears orders years in place with CompareSequence, using the id as a final tiebreak.
func SortAcademicYears(years []AcademicYear) {
	sort.SliceStable(years, func(i, j int) bool {
		if c := CompareSequence(years[i], years[j]); c != 0 {
			return c < 0
		}
		return years[i].ID < years[j].ID
	})
}

// SortSemesters orders semesters in place with CompareSequence, using the id as a final tiebreak.
func SortSemesters(semesters []Semester) {
	sort.SliceStable(semesters, func(i, j int) bool {
		if c := CompareSequence(semesters[i], semesters[j]); c != 0 {
			return c < 0
		}
		return semesters[i].ID < semesters[j].ID
	})
}
