package validator_test

import (
	"testing"

	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/utils"
	"github.com/NethermindEth/notewise/validator"
	"github.com/stretchr/testify/assert"
)

func TestCustomValidations(t *testing.T) {
	type options struct {
		Level utils.LogLevel      `validate:"log_level"`
		Mode  address.StorageMode `validate:"storage_mode"`
	}
	v := validator.Validator()
	assert.Same(t, v, validator.Validator())

	assert.NoError(t, v.Struct(options{Level: utils.WARN, Mode: address.Private}))
	assert.Error(t, v.Struct(options{Level: utils.LogLevel(9), Mode: address.Public}))
	assert.Error(t, v.Struct(options{Level: utils.INFO, Mode: address.StorageMode(1)}))
}
