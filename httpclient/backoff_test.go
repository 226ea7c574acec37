package httpclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLinearBackOff(t *testing.T) {
	t.Run("given successive retries, then wait grows linearly", func(t *testing.T) {
		b := &LinearBackOff{Increment: 100 * time.Millisecond, MaxInterval: time.Second}

		assert.Equal(t, 100*time.Millisecond, b.NextBackOff())
		assert.Equal(t, 200*time.Millisecond, b.NextBackOff())
		assert.Equal(t, 300*time.Millisecond, b.NextBackOff())
	})

	t.Run("given growth past the cap, then wait is capped", func(t *testing.T) {
		b := &LinearBackOff{Increment: 400 * time.Millisecond, MaxInterval: time.Second}

		b.NextBackOff()                               // 400ms
		b.NextBackOff()                               // 800ms
		assert.Equal(t, time.Second, b.NextBackOff()) // capped from 1200ms
		assert.Equal(t, time.Second, b.NextBackOff())
	})

	t.Run("given a reset, then growth starts over", func(t *testing.T) {
		b := NewLinearBackOff()

		b.NextBackOff()
		b.NextBackOff()
		b.Reset()
		assert.Equal(t, DefaultLinearIncrement, b.NextBackOff())
	})
}

func TestConstantBackOffWithJitter(t *testing.T) {
	t.Run("given jitter factor, then wait stays within bounds", func(t *testing.T) {
		b := NewConstantBackOffWithJitter(time.Second)

		for i := 0; i < 100; i++ {
			wait := b.NextBackOff()
			assert.GreaterOrEqual(t, wait, 500*time.Millisecond)
			assert.LessOrEqual(t, wait, 1500*time.Millisecond)
		}
	})

	t.Run("given zero jitter factor, then wait is the interval exactly", func(t *testing.T) {
		b := &ConstantBackOffWithJitter{Interval: time.Second}

		assert.Equal(t, time.Second, b.NextBackOff())
	})

	t.Run("given out of range jitter factor, then interval unchanged", func(t *testing.T) {
		b := &ConstantBackOffWithJitter{Interval: time.Second, JitterFactor: 1.5}

		assert.Equal(t, time.Second, b.NextBackOff())
	})
}
