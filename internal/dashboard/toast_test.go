package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToasterReplaceAndExpire(t *testing.T) {
	t.Parallel()

	tr := NewToaster(0)
	assert.Equal(t, 3*time.Second, tr.Duration)

	first := tr.Show(ToastSuccess, "Saved")
	second := tr.Show(ToastError, "Failed")

	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, "Failed", cur.Message)
	assert.Equal(t, ToastError, cur.Kind)

	// The timer of the replaced toast must not clear the newer one.
	assert.False(t, tr.Expire(first))
	_, ok = tr.Current()
	assert.True(t, ok)

	assert.True(t, tr.Expire(second))
	_, ok = tr.Current()
	assert.False(t, ok)
	assert.False(t, tr.Expire(second))
}
