package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/boni03200-lang/gomasecure/internal/domain"
)

func RegisterCustomValidations(validate *validator.Validate) {
	validate.RegisterValidation("lat", validateLat)
	validate.RegisterValidation("lng", validateLng)
	validate.RegisterValidation("incident_type", validateIncidentType)
}

func validateLat(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90.0 && lat <= 90.0
}

func validateLng(fl validator.FieldLevel) bool {
	lng := fl.Field().Float()
	return lng >= -180.0 && lng <= 180.0
}

func validateIncidentType(fl validator.FieldLevel) bool {
	return domain.IncidentType(fl.Field().String()).Valid()
}
