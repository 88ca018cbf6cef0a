package selection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saturday = time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)

func TestConfirm(t *testing.T) {
	sel, err := Confirm(" 2024.0", "3", saturday, time.Saturday)
	require.NoError(t, err)
	assert.Equal(t, "2024", sel.Year)
	assert.Equal(t, "2024/3@2024-05-04", sel.String())

	_, err = Confirm("2024", "3", saturday.AddDate(0, 0, 1), time.Saturday)
	assert.ErrorContains(t, err, "Sunday")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Confirm("2024", "", saturday, time.Saturday)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestContext(t *testing.T) {
	ctx := context.Background()

	_, ok := From(ctx)
	assert.False(t, ok)
	_, err := Require(ctx)
	assert.ErrorIs(t, err, ErrNotConfirmed)

	sel := Selection{Year: "2024", Group: "1", Date: saturday}
	got, err := Require(WithSelection(ctx, sel))
	require.NoError(t, err)
	assert.Equal(t, sel, got)
}
