package configedit

import (
	"testing"

	"pitchdesk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleListAddDefaults(t *testing.T) {
	t.Parallel()

	l := NewRuleList(nil)
	l.AddRule()
	assert.Equal(t, []RuleDraft{{Operator: ">=", Threshold: "0", Score: "0"}}, l.Rows())
	assert.Equal(t, []model.Rule{{Operator: model.OpGTE}}, l.Rules())
}

func TestRuleListKeepsRawTextUntilSave(t *testing.T) {
	t.Parallel()

	l := NewRuleList([]model.Rule{{Operator: model.OpGT, Threshold: 10, Score: 2}})
	require.NoError(t, l.UpdateRule(0, RuleThreshold, ""))
	require.NoError(t, l.UpdateRule(0, RuleScore, "abc"))
	assert.Equal(t, "", l.Rows()[0].Threshold)
	assert.Equal(t, "abc", l.Rows()[0].Score)

	assert.Equal(t, []model.Rule{{Operator: model.OpGT}}, l.Rules())
}

func TestRuleListUpdateErrors(t *testing.T) {
	t.Parallel()

	l := NewRuleList([]model.Rule{{Operator: model.OpLT, Threshold: 1, Score: 1}})
	assert.ErrorIs(t, l.UpdateRule(1, RuleScore, "1"), ErrIndexOutOfRange)
	assert.ErrorIs(t, l.UpdateRule(-1, RuleScore, "1"), ErrIndexOutOfRange)
	assert.ErrorIs(t, l.RemoveRule(3), ErrIndexOutOfRange)
	assert.Error(t, l.UpdateRule(0, RuleOperator, "=>"))
	assert.Error(t, l.UpdateRule(0, RuleField("weight"), "1"))
}

func TestRuleDiffIgnoresOrder(t *testing.T) {
	t.Parallel()

	a := model.Rule{Operator: model.OpGT, Threshold: 100, Score: 5}
	b := model.Rule{Operator: model.OpLTE, Threshold: 10, Score: -2}
	l := NewRuleList([]model.Rule{a, b})

	require.NoError(t, l.RemoveRule(0))
	l.AddRule()
	require.NoError(t, l.UpdateRule(1, RuleOperator, ">"))
	require.NoError(t, l.UpdateRule(1, RuleThreshold, "100"))
	require.NoError(t, l.UpdateRule(1, RuleScore, "5"))

	assert.Equal(t, []model.Rule{b, a}, l.Rules())
	assert.True(t, l.Diff().Empty())
	assert.False(t, l.Dirty())
}

func TestRuleDiffMultiset(t *testing.T) {
	t.Parallel()

	a := model.Rule{Operator: model.OpEQ, Threshold: 1, Score: 1}
	b := model.Rule{Operator: model.OpGT, Threshold: 2, Score: 3}

	d := DiffRules([]model.Rule{a, a, b}, []model.Rule{a, b, b})
	assert.Equal(t, []model.Rule{b}, d.Add)
	assert.Equal(t, []model.Rule{a}, d.Remove)

	d = DiffRules(nil, nil)
	assert.NotNil(t, d.Add)
	assert.NotNil(t, d.Remove)
}

func TestRuleListCommit(t *testing.T) {
	t.Parallel()

	l := NewRuleList(nil)
	l.AddRule()
	require.NoError(t, l.UpdateRule(0, RuleScore, ""))
	require.True(t, l.Dirty())

	l.Commit()
	assert.False(t, l.Dirty())
	assert.Equal(t, "0", l.Rows()[0].Score)
}

func TestRuleListCommitToKeepsLaterRows(t *testing.T) {
	t.Parallel()

	l := NewRuleList(nil)
	l.AddRule()
	sent := l.Rules()
	l.AddRule()
	require.NoError(t, l.UpdateRule(1, RuleScore, "5"))

	l.CommitTo(sent)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, RuleDiff{
		Add:    []model.Rule{{Operator: model.OpGTE, Threshold: 0, Score: 5}},
		Remove: []model.Rule{},
	}, l.Diff())
}
