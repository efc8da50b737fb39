package controllers

import (
	"fmt"
	"sync"

	"foodninja/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request bodies to
// gin's validator engine.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("orderstatus", validOrderStatus)
	})
	return err
}

func validOrderStatus(fl validator.FieldLevel) bool {
	_, err := models.ParseOrderStatus(fl.Field().String())
	return err == nil
}
