package clockx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_AdvanceAndSet(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	c := NewFake(start)

	assert.Equal(t, int64(1_700_000_000), Unix(c))

	c.Advance(90 * time.Second)
	assert.Equal(t, int64(1_700_000_090), Unix(c))

	c.Set(start)
	assert.True(t, c.Now().Equal(start))
}

func TestReal_IsCloseToTimeNow(t *testing.T) {
	before := time.Now().Unix()
	got := Unix(Real())
	after := time.Now().Unix()

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}
