package allocation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/allocation-engine/allocation"
)

func TestParseDate_ISO(t *testing.T) {
	d, err := allocation.ParseDate("2026-03-09")

	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", d.String())
	assert.True(t, d.Equal(allocation.NewDate(2026, time.March, 9)))
}

func TestParseDate_Malformed_IsValidationError(t *testing.T) {
	for _, input := range []string{"today", "09/03/2026", "2026-3-9", ""} {
		_, err := allocation.ParseDate(input)
		require.Error(t, err, "input=%q", input)
		assert.ErrorIs(t, err, allocation.ErrInvalidDate, "input=%q", input)
		assert.True(t, allocation.IsValidationError(err), "input=%q", input)
	}
}

func TestDate_AddDays(t *testing.T) {
	d := allocation.NewDate(2026, time.March, 1)
	assert.Equal(t, "2026-02-28", d.AddDays(-1).String())
}
