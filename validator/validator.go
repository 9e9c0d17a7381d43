package validator

import (
	"sync"

	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/utils"
	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

func validateLogLevel(fl validator.FieldLevel) bool {
	level, ok := fl.Field().Interface().(utils.LogLevel)
	return ok && level.Valid()
}

func validateStorageMode(fl validator.FieldLevel) bool {
	mode, ok := fl.Field().Interface().(address.StorageMode)
	return ok && mode.Valid()
}

// Validator returns a singleton that can be used to validate various objects
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()

		if err := v.RegisterValidation("log_level", validateLogLevel); err != nil {
			panic("failed to register validation: " + err.Error())
		}
		if err := v.RegisterValidation("storage_mode", validateStorageMode); err != nil {
			panic("failed to register validation: " + err.Error())
		}
	})
	return v
}
