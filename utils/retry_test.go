package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NethermindEth/notewise/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func TestRetry(t *testing.T) {
	policy := utils.Retry{MaxAttempts: 4, MinWait: time.Millisecond, MaxWait: 4 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		var calls int
		err := policy.Do(context.Background(), func(attempt int) error {
			assert.Equal(t, calls, attempt)
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up at the cap", func(t *testing.T) {
		var calls int
		err := policy.Do(context.Background(), func(int) error {
			calls++
			return errTransient
		})
		require.ErrorIs(t, err, utils.ErrMaxAttempts)
		require.ErrorIs(t, err, errTransient)
		assert.Equal(t, 4, calls)
	})

	t.Run("stops on non retryable errors", func(t *testing.T) {
		fatal := errors.New("fatal")
		p := policy
		p.Retryable = func(err error) bool { return errors.Is(err, errTransient) }

		var calls int
		err := p.Do(context.Background(), func(int) error {
			calls++
			return fatal
		})
		require.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := utils.Retry{MaxAttempts: 100, MinWait: time.Hour}
		err := p.Do(ctx, func(int) error {
			cancel()
			return errTransient
		})
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("zero attempts", func(t *testing.T) {
		require.ErrorIs(t, utils.Retry{}.Do(context.Background(), func(int) error { return nil }), utils.ErrMaxAttempts)
	})
}
