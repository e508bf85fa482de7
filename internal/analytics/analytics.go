// Package analytics computes aggregate statistics over recorded agent runs.
package analytics

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
)

// DB is the interface for database queries used by analytics.
type DB interface {
	Conn() *sql.DB
}

// ActionStats holds pass-rate stats for one action kind.
type ActionStats struct {
	Action   string  `json:"action"`
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	PassRate float64 `json:"pass_rate_pct"`
	ExecFail float64 `json:"exec_fail_pct"`
}

// QueryActionStats returns per-action pass and execution-failure rates
// across all recorded steps.
func QueryActionStats(database DB, since string) ([]ActionStats, error) {
	query := `
		SELECT action,
			COUNT(*) as total,
			SUM(CASE WHEN passed = 1 THEN 1 ELSE 0 END) as passed,
			SUM(CASE WHEN exec_ok = 0 THEN 1 ELSE 0 END) as exec_failed
		FROM step_results
		WHERE action != ''`

	args := []interface{}{}
	if since != "" {
		query += ` AND timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY action`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query action stats: %w", err)
	}
	defer rows.Close()

	var results []ActionStats
	for rows.Next() {
		var action string
		var total, passed, execFailed int
		if err := rows.Scan(&action, &total, &passed, &execFailed); err != nil {
			return nil, fmt.Errorf("scan action stats: %w", err)
		}
		results = append(results, ActionStats{
			Action:   action,
			Total:    total,
			Passed:   passed,
			PassRate: pct(passed, total),
			ExecFail: pct(execFailed, total),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Action < results[j].Action
	})
	return results, nil
}

// StepDuration holds duration stats for one action kind.
type StepDuration struct {
	Action string  `json:"action"`
	Count  int     `json:"count"`
	Avg    float64 `json:"avg_seconds"`
	P50    float64 `json:"p50_seconds"`
	P95    float64 `json:"p95_seconds"`
}

// QueryStepDurations returns average and percentile step durations per
// action kind.
func QueryStepDurations(database DB, since string) ([]StepDuration, error) {
	query := `
		SELECT action, duration_ms
		FROM step_results
		WHERE action != '' AND duration_ms > 0`

	args := []interface{}{}
	if since != "" {
		query += ` AND timestamp >= ?`
		args = append(args, since)
	}

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query step durations: %w", err)
	}
	defer rows.Close()

	durations := make(map[string][]float64)
	for rows.Next() {
		var action string
		var durationMs int64
		if err := rows.Scan(&action, &durationMs); err != nil {
			return nil, fmt.Errorf("scan step duration: %w", err)
		}
		durations[action] = append(durations[action], float64(durationMs)/1000.0)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var results []StepDuration
	for action, vals := range durations {
		sort.Float64s(vals)
		results = append(results, StepDuration{
			Action: action,
			Count:  len(vals),
			Avg:    avg(vals),
			P50:    percentile(vals, 50),
			P95:    percentile(vals, 95),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Action < results[j].Action
	})
	return results, nil
}

// RiskStats holds pass-rate stats per risk level.
type RiskStats struct {
	Risk     string  `json:"risk"`
	Total    int     `json:"total"`
	PassRate float64 `json:"pass_rate_pct"`
}

// riskOrder sorts risk levels by severity rather than alphabetically.
var riskOrder = map[string]int{"low": 0, "medium": 1, "high": 2}

// QueryRiskStats returns pass rates grouped by step risk level.
func QueryRiskStats(database DB, since string) ([]RiskStats, error) {
	query := `
		SELECT risk,
			COUNT(*) as total,
			SUM(CASE WHEN passed = 1 THEN 1 ELSE 0 END) as passed
		FROM step_results
		WHERE risk != ''`

	args := []interface{}{}
	if since != "" {
		query += ` AND timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY risk`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query risk stats: %w", err)
	}
	defer rows.Close()

	var results []RiskStats
	for rows.Next() {
		var risk string
		var total, passed int
		if err := rows.Scan(&risk, &total, &passed); err != nil {
			return nil, fmt.Errorf("scan risk stats: %w", err)
		}
		results = append(results, RiskStats{
			Risk:     risk,
			Total:    total,
			PassRate: pct(passed, total),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return riskOrder[results[i].Risk] < riskOrder[results[j].Risk]
	})
	return results, nil
}

// RunThroughput holds run counts and outcomes for a time period.
type RunThroughput struct {
	Period      string  `json:"period"`
	Runs        int     `json:"runs"`
	FullPass    int     `json:"full_pass"`
	Partial     int     `json:"partial"`
	Failed      int     `json:"failed"`
	AvgPassRate float64 `json:"avg_pass_rate_pct"`
}

// QueryRunThroughput returns run outcomes grouped by week, most recent
// first.
func QueryRunThroughput(database DB, since string) ([]RunThroughput, error) {
	query := `
		SELECT
			strftime('%Y-W%W', timestamp) as period,
			COUNT(*) as runs,
			SUM(CASE WHEN total_steps > 0 AND passed_steps = total_steps THEN 1 ELSE 0 END) as full_pass,
			SUM(CASE WHEN passed_steps > 0 AND passed_steps < total_steps THEN 1 ELSE 0 END) as partial,
			SUM(CASE WHEN passed_steps = 0 THEN 1 ELSE 0 END) as failed,
			AVG(pass_rate) as avg_rate
		FROM runs`

	args := []interface{}{}
	if since != "" {
		query += ` WHERE timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY period ORDER BY period DESC LIMIT 10`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query run throughput: %w", err)
	}
	defer rows.Close()

	var results []RunThroughput
	for rows.Next() {
		var rt RunThroughput
		var avgRate sql.NullFloat64
		if err := rows.Scan(&rt.Period, &rt.Runs, &rt.FullPass, &rt.Partial, &rt.Failed, &avgRate); err != nil {
			return nil, fmt.Errorf("scan run throughput: %w", err)
		}
		if avgRate.Valid {
			rt.AvgPassRate = math.Round(avgRate.Float64*1000) / 10
		}
		results = append(results, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunEvent holds one step outcome for the run-detail view.
type RunEvent struct {
	Timestamp string `json:"timestamp"`
	StepID    string `json:"step_id"`
	Title     string `json:"title"`
	Action    string `json:"action"`
	Risk      string `json:"risk"`
	Passed    bool   `json:"passed"`
	Detail    string `json:"detail,omitempty"`
}

// QueryRunDetail returns the full step timeline for one run.
func QueryRunDetail(database DB, runID string) ([]RunEvent, error) {
	rows, err := database.Conn().Query(
		`SELECT timestamp, step_id, title, action, risk, exec_ok, passed, reason, duration_ms
		 FROM step_results WHERE run_id = ? ORDER BY timestamp, id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run detail: %w", err)
	}
	defer rows.Close()

	var results []RunEvent
	for rows.Next() {
		var e RunEvent
		var execOK bool
		var reason sql.NullString
		var durationMs int64
		if err := rows.Scan(&e.Timestamp, &e.StepID, &e.Title, &e.Action, &e.Risk, &execOK, &e.Passed, &reason, &durationMs); err != nil {
			return nil, fmt.Errorf("scan run detail: %w", err)
		}

		status := "PASS"
		if !e.Passed {
			status = "FAIL"
			if !execOK {
				status = "FAIL (execution)"
			}
		}
		e.Detail = fmt.Sprintf("%s (%dms)", status, durationMs)
		if reason.Valid && reason.String != "" {
			e.Detail += ": " + reason.String
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// --- helpers ---

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*10) / 10
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return math.Round(sorted[lower]*10) / 10
	}
	weight := rank - float64(lower)
	return math.Round((sorted[lower]*(1-weight)+sorted[upper]*weight)*10) / 10
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
