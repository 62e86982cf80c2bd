package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "bienesraices/internal/errors"
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Name                 string `form:"nombre" validate:"required"`
	Email                string `form:"email" validate:"required,email"`
	Password             string `form:"password" validate:"min=6,bcryptmax"`
	PasswordConfirmation string `form:"repetir_password" validate:"eqfield=Password"`
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// RecoverInput is the password recovery form.
type RecoverInput struct {
	Email string `form:"email" validate:"required,email"`
}

// ResetInput is the new password form reached from a recovery link.
type ResetInput struct {
	Password             string `form:"password" validate:"min=6,bcryptmax"`
	PasswordConfirmation string `form:"repetir_password" validate:"eqfield=Password"`
}

// Field messages keyed by "<form field>.<rule>".
var fieldMessages = map[string]string{
	"nombre.required":          "El nombre no puede ir vacío",
	"email.required":           "El email contiene un formato erróneo",
	"email.email":              "El email contiene un formato erróneo",
	"password.required":        "La contraseña es obligatoria",
	"password.min":             "La contraseña debe contener mínimo 6 caracteres",
	"password.bcryptmax":       "La contraseña no puede superar los 72 bytes",
	"repetir_password.eqfield": "Las contraseñas no coinciden",
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// max=72 would count runes, bcrypt counts bytes.
	_ = v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	// Report fields by their form names so errors line up with the inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput runs every rule on input and collects all failures.
// It returns nil or a *apperrors.ValidationError.
func validateInput(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &apperrors.ValidationError{}
	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "El campo " + fe.Field() + " no es válido"
		}
		verr.Add(fe.Field(), msg)
	}
	return verr
}

// ValidateRegistration applies the sign-up rules to in without looking at
// storage. It returns nil or a *apperrors.ValidationError.
func ValidateRegistration(in RegisterInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	return validateInput(newValidator(), in)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
