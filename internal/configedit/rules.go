package configedit

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"pitchdesk/internal/model"
)

var ErrIndexOutOfRange = errors.New("rule index out of range")

type RuleField string

const (
	RuleOperator  RuleField = "operator"
	RuleThreshold RuleField = "threshold"
	RuleScore     RuleField = "score"
)

// RuleDraft is a rule row while it is being edited. Numbers stay raw text
// so a field can be cleared; they become numbers only in Rules.
type RuleDraft struct {
	Operator  string
	Threshold string
	Score     string
}

func draftOf(r model.Rule) RuleDraft {
	return RuleDraft{
		Operator:  string(r.Operator),
		Threshold: strconv.FormatFloat(r.Threshold, 'f', -1, 64),
		Score:     strconv.FormatFloat(r.Score, 'f', -1, 64),
	}
}

// number coerces blank or invalid text to 0.
func number(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (d RuleDraft) Rule() model.Rule {
	op, err := model.ParseOperator(d.Operator)
	if err != nil {
		op = model.OpGTE
	}
	return model.Rule{Operator: op, Threshold: number(d.Threshold), Score: number(d.Score)}
}

type RuleDiff struct {
	Add    []model.Rule `json:"add"`
	Remove []model.Rule `json:"remove"`
}

func (d RuleDiff) Empty() bool { return len(d.Add) == 0 && len(d.Remove) == 0 }

type RuleList struct {
	original []model.Rule
	rows     []RuleDraft
}

func NewRuleList(rules []model.Rule) *RuleList {
	l := &RuleList{original: append([]model.Rule{}, rules...)}
	for _, r := range rules {
		l.rows = append(l.rows, draftOf(r))
	}
	return l
}

func (l *RuleList) Rows() []RuleDraft { return append([]RuleDraft{}, l.rows...) }

func (l *RuleList) Len() int { return len(l.rows) }

// AddRule appends {>=, 0, 0}.
func (l *RuleList) AddRule() {
	l.rows = append(l.rows, RuleDraft{Operator: string(model.OpGTE), Threshold: "0", Score: "0"})
}

func (l *RuleList) UpdateRule(i int, field RuleField, value string) error {
	if i < 0 || i >= len(l.rows) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	switch field {
	case RuleOperator:
		op, err := model.ParseOperator(value)
		if err != nil {
			return err
		}
		l.rows[i].Operator = string(op)
	case RuleThreshold:
		l.rows[i].Threshold = value
	case RuleScore:
		l.rows[i].Score = value
	default:
		return fmt.Errorf("unknown rule field %q", field)
	}
	return nil
}

func (l *RuleList) RemoveRule(i int) error {
	if i < 0 || i >= len(l.rows) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	l.rows = append(l.rows[:i:i], l.rows[i+1:]...)
	return nil
}

// Rules returns the rows as rules, with blank or invalid numbers as 0.
func (l *RuleList) Rules() []model.Rule {
	out := make([]model.Rule, 0, len(l.rows))
	for _, d := range l.rows {
		out = append(out, d.Rule())
	}
	return out
}

// Diff compares by value and ignores order; duplicates count.
func (l *RuleList) Diff() RuleDiff { return DiffRules(l.original, l.Rules()) }

func (l *RuleList) Dirty() bool { return !l.Diff().Empty() }

func (l *RuleList) Commit() {
	l.original = l.Rules()
	l.rows = l.rows[:0]
	for _, r := range l.original {
		l.rows = append(l.rows, draftOf(r))
	}
}

// CommitTo makes rules the saved baseline; the rows being edited stay as they are.
func (l *RuleList) CommitTo(rules []model.Rule) { l.original = append([]model.Rule{}, rules...) }

// DiffRules is a multiset difference of two rule lists.
func DiffRules(original, current []model.Rule) RuleDiff {
	left := map[model.Rule]int{}
	for _, r := range original {
		left[r]++
	}
	d := RuleDiff{Add: []model.Rule{}, Remove: []model.Rule{}}
	for _, r := range current {
		if left[r] > 0 {
			left[r]--
			continue
		}
		d.Add = append(d.Add, r)
	}
	for _, r := range original {
		if left[r] > 0 {
			left[r]--
			d.Remove = append(d.Remove, r)
		}
	}
	return d
}
