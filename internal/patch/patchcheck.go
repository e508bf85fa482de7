package patch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// DiffStats summarizes a unified diff.
type DiffStats struct {
	FilesAffected int
	LinesAdded    int
	LinesRemoved  int
}

// ValidateDiff parses a unified diff and rejects malformed input before it
// reaches git apply. Catching garbage here gives a cleaner error than git's
// "corrupt patch" output.
func ValidateDiff(patch string) error {
	if strings.TrimSpace(patch) == "" {
		return fmt.Errorf("patch is empty")
	}
	fds, err := diff.NewMultiFileDiffReader(strings.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return fmt.Errorf("invalid unified diff: %w", err)
	}
	if len(fds) == 0 {
		return fmt.Errorf("patch contains no file diffs")
	}
	return nil
}

// Stats computes file and line counts for a unified diff. Invalid diffs
// return zero stats.
func Stats(patch string) DiffStats {
	fds, err := diff.NewMultiFileDiffReader(strings.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return DiffStats{}
	}
	stats := DiffStats{FilesAffected: len(fds)}
	for _, fd := range fds {
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
					stats.LinesAdded++
				} else if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
					stats.LinesRemoved++
				}
			}
		}
	}
	return stats
}

// SuiteCounts holds the pass/fail totals parsed from a full-suite run.
type SuiteCounts struct {
	Passed int
	Failed int
}

var (
	suitePassedRe = regexp.MustCompile(`(\d+) passed`)
	suiteFailedRe = regexp.MustCompile(`(\d+) failed`)
)

// ParseSuiteCounts extracts "N passed" / "N failed" totals from combined
// test output.
func ParseSuiteCounts(output string) SuiteCounts {
	var c SuiteCounts
	if m := suitePassedRe.FindStringSubmatch(output); m != nil {
		c.Passed, _ = strconv.Atoi(m[1])
	}
	if m := suiteFailedRe.FindStringSubmatch(output); m != nil {
		c.Failed, _ = strconv.Atoi(m[1])
	}
	return c
}
