package utils_test

import (
	"strings"
	"testing"

	"github.com/NethermindEth/notewise/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var levelStrings = map[utils.LogLevel]string{
	utils.DEBUG: "debug",
	utils.INFO:  "info",
	utils.WARN:  "warn",
	utils.ERROR: "error",
}

func TestLogLevelSet(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			assert.Equal(t, str, level.String())

			l := new(utils.LogLevel)
			require.NoError(t, l.Set(str))
			assert.Equal(t, level, *l)

			require.NoError(t, l.UnmarshalText([]byte(strings.ToUpper(str))))
			assert.Equal(t, level, *l)
		})
	}

	t.Run("unknown log level", func(t *testing.T) {
		l := new(utils.LogLevel)
		require.ErrorIs(t, l.Set("blah"), utils.ErrUnknownLogLevel)

		bad := utils.LogLevel(7)
		assert.False(t, bad.Valid())
		assert.Equal(t, "LogLevel(7)", bad.String())
		_, err := bad.MarshalText()
		require.ErrorIs(t, err, utils.ErrUnknownLogLevel)
	})

	t.Run("text round trip", func(t *testing.T) {
		text, err := utils.WARN.MarshalText()
		require.NoError(t, err)
		var l utils.LogLevel
		require.NoError(t, l.UnmarshalText(text))
		assert.Equal(t, utils.WARN, l)
	})
}

func TestNewZapLogger(t *testing.T) {
	for level := range levelStrings {
		logger, err := utils.NewZapLogger(level, false)
		require.NoError(t, err)
		logger.Debugw("message", "key", 1)
	}
	utils.NewNopZapLogger().Infow("discarded")
}
