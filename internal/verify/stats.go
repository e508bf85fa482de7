package verify

import (
	"regexp"
	"strconv"
	"strings"
)

// TestStats holds counts parsed from test-runner output.
type TestStats struct {
	Collected  int  `json:"collected"`
	Passed     int  `json:"passed"`
	Failed     int  `json:"failed"`
	Errors     int  `json:"errors"`
	XFailed    int  `json:"xfailed"`
	Warnings   int  `json:"warnings"`
	NoTestsRan bool `json:"no_tests_ran"`

	markers int
}

// HasMarkers reports whether any test-statistics marker was present in the
// parsed output.
func (s TestStats) HasMarkers() bool {
	return s.markers > 0 || s.NoTestsRan
}

// Fixed textual patterns matching pytest-style summary lines.
var (
	collectedRe = regexp.MustCompile(`collected (\d+) items?`)
	passedRe    = regexp.MustCompile(`(\d+) passed`)
	failedRe    = regexp.MustCompile(`(\d+) failed`)
	errorRe     = regexp.MustCompile(`(\d+) errors?\b`)
	xfailedRe   = regexp.MustCompile(`(\d+) xfailed`)
	warningsRe  = regexp.MustCompile(`(\d+) warnings?\b`)
)

// ExtractStats parses test statistics out of combined stdout+stderr using
// the fixed pattern set.
func ExtractStats(output string) TestStats {
	var stats TestStats

	if strings.Contains(output, "no tests ran") {
		stats.NoTestsRan = true
	}

	grab := func(re *regexp.Regexp, dst *int) {
		if m := re.FindStringSubmatch(output); m != nil {
			*dst, _ = strconv.Atoi(m[1])
			stats.markers++
		}
	}
	grab(collectedRe, &stats.Collected)
	grab(passedRe, &stats.Passed)
	grab(failedRe, &stats.Failed)
	grab(errorRe, &stats.Errors)
	grab(xfailedRe, &stats.XFailed)
	grab(warningsRe, &stats.Warnings)

	return stats
}
