package testrunner

import (
	"path/filepath"
	"strings"
)

// Family identifies a test-framework family by how its targets are named.
type Family string

const (
	FamilyPytest Family = "pytest"
	FamilyGo     Family = "go"
	FamilyJest   Family = "jest"
)

// familyOrder fixes tie-breaking for the majority vote: pytest (the
// default) wins any tie it is part of, then go, then jest.
var familyOrder = []Family{FamilyPytest, FamilyGo, FamilyJest}

// DetectFamily picks the framework family for a set of targets by majority
// vote over per-file detection. Unknown targets count toward pytest, the
// default family; ties resolve by familyOrder.
func DetectFamily(targets []string) Family {
	votes := make(map[Family]int)
	for _, t := range targets {
		votes[detectOne(t)]++
	}
	best := FamilyPytest
	for _, f := range familyOrder[1:] {
		if votes[f] > votes[best] {
			best = f
		}
	}
	return best
}

func detectOne(target string) Family {
	base := filepath.Base(target)
	switch {
	case strings.HasSuffix(base, "_test.go"), strings.HasSuffix(target, "/..."):
		return FamilyGo
	case strings.HasSuffix(base, ".test.js"), strings.HasSuffix(base, ".test.ts"),
		strings.HasSuffix(base, ".spec.js"), strings.HasSuffix(base, ".spec.ts"):
		return FamilyJest
	default:
		return FamilyPytest
	}
}

// Command returns the process name and arguments for running the given
// targets under this family.
func (f Family) Command(targets []string) (string, []string) {
	switch f {
	case FamilyGo:
		return "go", append([]string{"test"}, targets...)
	case FamilyJest:
		return "npx", append([]string{"jest", "--colors=false"}, targets...)
	default:
		return "pytest", append([]string{"-v"}, targets...)
	}
}

// GroupByFamily splits targets into per-family groups, preserving order
// within each group.
func GroupByFamily(targets []string) map[Family][]string {
	groups := make(map[Family][]string)
	for _, t := range targets {
		f := detectOne(t)
		groups[f] = append(groups[f], t)
	}
	return groups
}
