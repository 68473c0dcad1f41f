package model

import (
	"fmt"
	"strings"
	"time"
)

type Applied string

const (
	AppliedNo          Applied = "no"
	AppliedYes         Applied = "yes"
	AppliedNotRelevant Applied = "not_relevant"
)

// AppliedValues lists the applied states in the order the UI cycles through them.
var AppliedValues = []Applied{AppliedNo, AppliedYes, AppliedNotRelevant}

func ParseApplied(s string) (Applied, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no":
		return AppliedNo, nil
	case "yes":
		return AppliedYes, nil
	case "not_relevant", "not-relevant":
		return AppliedNotRelevant, nil
	default:
		return "", fmt.Errorf("invalid applied value: %q", s)
	}
}

// Next returns the applied state after a in AppliedValues, wrapping around.
func (a Applied) Next() Applied {
	for i, v := range AppliedValues {
		if v == a {
			return AppliedValues[(i+1)%len(AppliedValues)]
		}
	}
	return AppliedNo
}

type Record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`

	// Proposal is the accepted text. Panel edits overwrite it.
	Proposal *string `json:"proposal"`
	// GeneratedProposal is the text as produced upstream; it is never edited locally.
	GeneratedProposal *string `json:"generatedProposal,omitempty"`

	Comments  string    `json:"comments"`
	Applied   Applied   `json:"applied"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r Record) ProposalText() string {
	if r.Proposal == nil {
		return ""
	}
	return *r.Proposal
}

type EditableField string

const (
	FieldComments EditableField = "comments"
	FieldApplied  EditableField = "applied"
)

func ParseEditableField(s string) (EditableField, error) {
	switch EditableField(strings.ToLower(strings.TrimSpace(s))) {
	case FieldComments:
		return FieldComments, nil
	case FieldApplied:
		return FieldApplied, nil
	default:
		return "", fmt.Errorf("field is not editable: %q", s)
	}
}

// UpdatePayload is the exact body of a record save.
type UpdatePayload struct {
	Comments string  `json:"comments"`
	Applied  Applied `json:"applied"`
}

type TimeFilter string

const (
	TimeAll TimeFilter = "all"
	Time1h  TimeFilter = "1h"
	Time3h  TimeFilter = "3h"
	Time6h  TimeFilter = "6h"
	Time12h TimeFilter = "12h"
	Time24h TimeFilter = "24h"
	Time7d  TimeFilter = "7d"
	Time30d TimeFilter = "30d"
)

var TimeFilters = []TimeFilter{TimeAll, Time1h, Time3h, Time6h, Time12h, Time24h, Time7d, Time30d}

func ParseTimeFilter(s string) (TimeFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TimeAll, nil
	}
	for _, tf := range TimeFilters {
		if string(tf) == s {
			return tf, nil
		}
	}
	return "", fmt.Errorf("invalid time filter: %q (want one of all|1h|3h|6h|12h|24h|7d|30d)", s)
}

// Duration returns the look-back window; zero for TimeAll.
func (tf TimeFilter) Duration() time.Duration {
	switch tf {
	case Time1h:
		return time.Hour
	case Time3h:
		return 3 * time.Hour
	case Time6h:
		return 6 * time.Hour
	case Time12h:
		return 12 * time.Hour
	case Time24h:
		return 24 * time.Hour
	case Time7d:
		return 7 * 24 * time.Hour
	case Time30d:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// Since returns the lower bound of the window relative to now, or the zero time for TimeAll.
func (tf TimeFilter) Since(now time.Time) time.Time {
	d := tf.Duration()
	if d == 0 {
		return time.Time{}
	}
	return now.Add(-d)
}

func (tf TimeFilter) Label() string {
	switch tf {
	case TimeAll, "":
		return "All time"
	case Time1h:
		return "Last 1 hour"
	case Time7d:
		return "Last 7 days"
	case Time30d:
		return "Last 30 days"
	default:
		return "Last " + strings.TrimSuffix(string(tf), "h") + " hours"
	}
}

// Next cycles through TimeFilters.
func (tf TimeFilter) Next() TimeFilter {
	for i, v := range TimeFilters {
		if v == tf {
			return TimeFilters[(i+1)%len(TimeFilters)]
		}
	}
	return TimeAll
}

type LinkResult struct {
	Title   string  `json:"title"`
	Link    string  `json:"link"`
	Snippet string  `json:"snippet,omitempty"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

type Prompt struct {
	Name     string `json:"prompt_name"`
	Text     string `json:"prompt_text"`
	Location string `json:"location"`
}

type Operator string

const (
	OpGT  Operator = ">"
	OpGTE Operator = ">="
	OpLT  Operator = "<"
	OpLTE Operator = "<="
	OpEQ  Operator = "=="
)

var Operators = []Operator{OpGT, OpGTE, OpLT, OpLTE, OpEQ}

func ParseOperator(s string) (Operator, error) {
	s = strings.TrimSpace(s)
	for _, op := range Operators {
		if string(op) == s {
			return op, nil
		}
	}
	return "", fmt.Errorf("invalid operator: %q", s)
}

type Rule struct {
	Operator  Operator `json:"operator"`
	Threshold float64  `json:"threshold"`
	Score     float64  `json:"score"`
}

const RoleAdmin = "admin"

// KeywordSections lists the keyword lists of the generation service in display order.
var KeywordSections = []string{
	"search_keywords",
	"preferred_keywords",
	"preferred_countries",
	"neutral_countries",
	"preferred_categories",
	"preferred_subcategories",
}

// SectionLabel turns "preferred_countries" into "Preferred Countries".
func SectionLabel(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// TagDiff is the add/remove pair sent for one list on save. Both slices are always non-nil.
type TagDiff struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

func (d TagDiff) Empty() bool { return len(d.Add) == 0 && len(d.Remove) == 0 }
