package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/fieldops/fieldops-api/internal/models"
)

// Domain enum validators registered on gin's binding engine so payloads
// carrying an unknown type or priority fail at bind time.
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("interventiontype", func(fl validator.FieldLevel) bool {
		return models.InterventionType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return models.Priority(fl.Field().String()).Valid()
	})
}
