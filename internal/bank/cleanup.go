package bank

import (
	"strings"

	"provia-quiz-service/internal/domain"
)

const (
	MinPromptLength   = 15
	MinCleanupOptions = 3
	MaxOptionLength   = 150
)

// CleanupReport counts the records dropped by each rule.
type CleanupReport struct {
	Input      int `json:"input"`
	Kept       int `json:"kept"`
	NoAnswer   int `json:"noAnswer"`
	ShortText  int `json:"shortText"`
	FewOptions int `json:"fewOptions"`
	LongOption int `json:"longOption"`
	Duplicates int `json:"duplicates"`
}

// Dropped is the total number of removed records.
func (r CleanupReport) Dropped() int {
	return r.Input - r.Kept
}

// Cleanup drops malformed records and duplicate prompts. Rules are applied in
// order and a record is counted against the first rule it breaks.
func Cleanup(records []Record) ([]Record, CleanupReport) {
	report := CleanupReport{Input: len(records)}
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		switch {
		case rec.CorrectAnswer == nil || *rec.CorrectAnswer < 0 || *rec.CorrectAnswer >= len(rec.Options):
			report.NoAnswer++
			continue
		case len(strings.TrimSpace(rec.Text)) < MinPromptLength:
			report.ShortText++
			continue
		case len(rec.Options) < MinCleanupOptions:
			report.FewOptions++
			continue
		case hasLongOption(rec.Options):
			report.LongOption++
			continue
		}
		key := domain.PromptKey(rec.Text)
		if _, ok := seen[key]; ok {
			report.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	report.Kept = len(out)
	return out, report
}

func hasLongOption(options []string) bool {
	for _, o := range options {
		if len(o) > MaxOptionLength {
			return true
		}
	}
	return false
}

// Redistribute spreads records evenly over days 1..days in their current
// order. The first len%days days receive one extra record. Records are
// copied; the input is not modified.
func Redistribute(records []Record, days int) []Record {
	if days <= 0 || len(records) == 0 {
		return append([]Record(nil), records...)
	}
	perDay := len(records) / days
	remainder := len(records) % days

	out := make([]Record, 0, len(records))
	i := 0
	for day := 1; day <= days && i < len(records); day++ {
		n := perDay
		if day <= remainder {
			n++
		}
		for j := 0; j < n; j++ {
			rec := records[i]
			rec.Day = day
			out = append(out, rec)
			i++
		}
	}
	return out
}

// CountByDay returns the number of records on each day.
func CountByDay(records []Record) map[int]int {
	counts := make(map[int]int)
	for _, rec := range records {
		counts[rec.Day]++
	}
	return counts
}
