package configedit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pitchdesk/internal/model"

	"github.com/tidwall/gjson"
)

type FieldKind int

const (
	KindNumber FieldKind = iota
	KindString
	KindBool
	KindRules
	KindTags
)

func (k FieldKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "text"
	case KindBool:
		return "bool"
	case KindRules:
		return "rules"
	case KindTags:
		return "list"
	default:
		return "unknown"
	}
}

// RatingField is one editable entry of a rating section. Scalars keep their
// value as text; list kinds carry their own editor.
type RatingField struct {
	Section  string
	Name     string
	Kind     FieldKind
	Value    string
	original string
	Rules    *RuleList
	Tags     *TagSet
}

func (f *RatingField) Dirty() bool {
	switch f.Kind {
	case KindRules:
		return f.Rules.Dirty()
	case KindTags:
		return f.Tags.Dirty()
	default:
		return f.Value != f.original
	}
}

// payload returns the value to send for a changed field.
func (f *RatingField) payload() (any, error) {
	switch f.Kind {
	case KindRules:
		return f.Rules.Diff(), nil
	case KindTags:
		return f.Tags.Diff(), nil
	case KindNumber:
		v := strings.TrimSpace(f.Value)
		if v == "" {
			return 0.0, nil
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %q is not a number", f.Section, f.Name, f.Value)
		}
		return n, nil
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(f.Value))
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %q is not true or false", f.Section, f.Name, f.Value)
		}
		return b, nil
	default:
		return f.Value, nil
	}
}

func (f *RatingField) commit() {
	switch f.Kind {
	case KindRules:
		f.Rules.Commit()
	case KindTags:
		f.Tags.Commit()
	default:
		f.original = f.Value
	}
}

// RatingConfig edits {section: {field: scalar | [rule...] | [string...]}}.
// Entries of any other shape are left alone.
type RatingConfig struct {
	sections []string
	fields   map[string][]*RatingField
}

var ErrUnknownField = errors.New("unknown rating field")

func ParseRatingConfig(raw []byte) (*RatingConfig, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("rating config is not valid JSON")
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, errors.New("rating config is not an object")
	}

	rc := &RatingConfig{fields: map[string][]*RatingField{}}
	root.ForEach(func(section, body gjson.Result) bool {
		if !body.IsObject() {
			return true
		}
		name := section.String()
		var fields []*RatingField
		body.ForEach(func(key, val gjson.Result) bool {
			if f := parseField(name, key.String(), val); f != nil {
				fields = append(fields, f)
			}
			return true
		})
		rc.sections = append(rc.sections, name)
		rc.fields[name] = fields
		return true
	})
	return rc, nil
}

func parseField(section, name string, val gjson.Result) *RatingField {
	f := &RatingField{Section: section, Name: name}
	switch {
	case val.Type == gjson.Number:
		f.Kind = KindNumber
		f.Value = strconv.FormatFloat(val.Float(), 'f', -1, 64)
	case val.Type == gjson.String:
		f.Kind = KindString
		f.Value = val.String()
	case val.Type == gjson.True || val.Type == gjson.False:
		f.Kind = KindBool
		f.Value = strconv.FormatBool(val.Bool())
	case val.IsArray():
		items := val.Array()
		if len(items) > 0 && items[0].IsObject() {
			if !items[0].Get("operator").Exists() {
				return nil
			}
			f.Kind = KindRules
			f.Rules = NewRuleList(parseRules(items))
			return f
		}
		// An empty list is read as rules when the field name says so.
		if len(items) == 0 && strings.Contains(name, "rule") {
			f.Kind = KindRules
			f.Rules = NewRuleList(nil)
			return f
		}
		f.Kind = KindTags
		strs := make([]string, 0, len(items))
		for _, it := range items {
			strs = append(strs, it.String())
		}
		f.Tags = NewTagSet(strs)
		return f
	default:
		return nil
	}
	f.original = f.Value
	return f
}

func parseRules(items []gjson.Result) []model.Rule {
	out := make([]model.Rule, 0, len(items))
	for _, it := range items {
		op, err := model.ParseOperator(it.Get("operator").String())
		if err != nil {
			op = model.OpGTE
		}
		out = append(out, model.Rule{
			Operator:  op,
			Threshold: it.Get("threshold").Float(),
			Score:     it.Get("score").Float(),
		})
	}
	return out
}

func (rc *RatingConfig) Sections() []string { return append([]string{}, rc.sections...) }

func (rc *RatingConfig) Fields(section string) []*RatingField { return rc.fields[section] }

func (rc *RatingConfig) Field(section, name string) (*RatingField, error) {
	for _, f := range rc.fields[section] {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, section, name)
}

// SetScalar stores raw text for a scalar field; it is checked at save time.
func (rc *RatingConfig) SetScalar(section, name, value string) error {
	f, err := rc.Field(section, name)
	if err != nil {
		return err
	}
	if f.Kind == KindRules || f.Kind == KindTags {
		return fmt.Errorf("%s.%s is a list", section, name)
	}
	f.Value = value
	return nil
}

// Payload returns only changed fields, grouped by section.
func (rc *RatingConfig) Payload() (map[string]map[string]any, error) {
	out := map[string]map[string]any{}
	for _, s := range rc.sections {
		for _, f := range rc.fields[s] {
			if !f.Dirty() {
				continue
			}
			v, err := f.payload()
			if err != nil {
				return nil, err
			}
			if out[s] == nil {
				out[s] = map[string]any{}
			}
			out[s][f.Name] = v
		}
	}
	return out, nil
}

func (rc *RatingConfig) Dirty() bool {
	for _, s := range rc.sections {
		for _, f := range rc.fields[s] {
			if f.Dirty() {
				return true
			}
		}
	}
	return false
}

// RatingBaseline is the state of every field at one moment, keyed by section
// and field name.
type RatingBaseline map[string]map[string]fieldState

type fieldState struct {
	value string
	rules []model.Rule
	tags  []string
}

// Snapshot records the working state of every field.
func (rc *RatingConfig) Snapshot() RatingBaseline {
	out := RatingBaseline{}
	for _, s := range rc.sections {
		out[s] = map[string]fieldState{}
		for _, f := range rc.fields[s] {
			st := fieldState{value: f.Value}
			switch f.Kind {
			case KindRules:
				st.rules = f.Rules.Rules()
			case KindTags:
				st.tags = f.Tags.Items()
			}
			out[s][f.Name] = st
		}
	}
	return out
}

// CommitTo makes b the saved baseline without touching the working values.
func (rc *RatingConfig) CommitTo(b RatingBaseline) {
	for _, s := range rc.sections {
		for _, f := range rc.fields[s] {
			st, ok := b[s][f.Name]
			if !ok {
				continue
			}
			switch f.Kind {
			case KindRules:
				f.Rules.CommitTo(st.rules)
			case KindTags:
				f.Tags.CommitTo(st.tags)
			default:
				f.original = st.value
			}
		}
	}
}

func (rc *RatingConfig) Commit() {
	for _, s := range rc.sections {
		for _, f := range rc.fields[s] {
			f.commit()
		}
	}
}
