package configedit

import (
	"testing"

	"pitchdesk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ratingJSON = `{
	"budget": {
		"min_fixed": 100,
		"currency": "USD",
		"enabled": true,
		"rules": [{"operator": ">=", "threshold": 500, "score": 3}]
	},
	"client": {
		"blocked_countries": ["XX"],
		"nested": {"ignored": 1}
	},
	"version": 3
}`

func TestParseRatingConfig(t *testing.T) {
	t.Parallel()

	rc, err := ParseRatingConfig([]byte(ratingJSON))
	require.NoError(t, err)
	assert.Equal(t, []string{"budget", "client"}, rc.Sections())

	budget := rc.Fields("budget")
	require.Len(t, budget, 4)
	assert.Equal(t, KindNumber, budget[0].Kind)
	assert.Equal(t, "100", budget[0].Value)
	assert.Equal(t, KindString, budget[1].Kind)
	assert.Equal(t, KindBool, budget[2].Kind)
	assert.Equal(t, KindRules, budget[3].Kind)
	assert.Equal(t, []model.Rule{{Operator: model.OpGTE, Threshold: 500, Score: 3}}, budget[3].Rules.Rules())

	client := rc.Fields("client")
	require.Len(t, client, 1)
	assert.Equal(t, KindTags, client[0].Kind)
	assert.False(t, rc.Dirty())
}

func TestRatingConfigPayloadOnlyChanges(t *testing.T) {
	t.Parallel()

	rc, err := ParseRatingConfig([]byte(ratingJSON))
	require.NoError(t, err)

	require.NoError(t, rc.SetScalar("budget", "min_fixed", "150"))
	require.NoError(t, rc.SetScalar("budget", "enabled", "true"))
	rules, err := rc.Field("budget", "rules")
	require.NoError(t, err)
	rules.Rules.AddRule()
	tags, err := rc.Field("client", "blocked_countries")
	require.NoError(t, err)
	tags.Tags.Add("YY")

	p, err := rc.Payload()
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]any{
		"budget": {
			"min_fixed": 150.0,
			"rules": RuleDiff{
				Add:    []model.Rule{{Operator: model.OpGTE}},
				Remove: []model.Rule{},
			},
		},
		"client": {
			"blocked_countries": model.TagDiff{Add: []string{"YY"}, Remove: []string{}},
		},
	}, p)

	rc.Commit()
	assert.False(t, rc.Dirty())
	p, err = rc.Payload()
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestRatingConfigValidation(t *testing.T) {
	t.Parallel()

	rc, err := ParseRatingConfig([]byte(ratingJSON))
	require.NoError(t, err)

	assert.ErrorIs(t, rc.SetScalar("budget", "nope", "1"), ErrUnknownField)
	assert.Error(t, rc.SetScalar("budget", "rules", "1"))

	require.NoError(t, rc.SetScalar("budget", "min_fixed", "lots"))
	_, err = rc.Payload()
	assert.Error(t, err)

	_, err = ParseRatingConfig([]byte(`[1,2]`))
	assert.Error(t, err)
	_, err = ParseRatingConfig([]byte(`{not json`))
	assert.Error(t, err)
}

func TestRatingConfigCommitToSentSnapshot(t *testing.T) {
	t.Parallel()

	rc, err := ParseRatingConfig([]byte(ratingJSON))
	require.NoError(t, err)

	require.NoError(t, rc.SetScalar("budget", "min_fixed", "200"))
	sent := rc.Snapshot()
	require.NoError(t, rc.SetScalar("budget", "currency", "EUR"))

	rc.CommitTo(sent)
	patch, err := rc.Payload()
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]any{"budget": {"currency": "EUR"}}, patch)

	minFixed, err := rc.Field("budget", "min_fixed")
	require.NoError(t, err)
	assert.False(t, minFixed.Dirty())
	assert.Equal(t, "200", minFixed.Value)
}
