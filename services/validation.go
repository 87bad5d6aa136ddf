package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ServiceError is the shared string-typed error of the portal services.
type ServiceError string

func (e ServiceError) Error() string { return string(e) }

const (
	ErrInvalidInput ServiceError = "neteisingi formos duomenys"
	ErrStorage      ServiceError = "Įvyko klaida. Bandykite dar kartą vėliau."
	ErrUnauthorized ServiceError = "Prisijunkite, kad galėtumėte tęsti."
)

// FieldError is one violated form constraint.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists the violated constraints of a submitted form in
// field order. It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return string(ErrInvalidInput)
	}
	return e.Fields[0].Message
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Messages returns every message, for rendering under the form.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Message)
	}
	return out
}

// fieldLabels are the Lithuanian captions of the form fields.
var fieldLabels = map[string]string{
	"first_name":      "Vardas",
	"last_name":       "Pavardė",
	"personal_code":   "Asmens kodas",
	"email":           "El. pašto adresas",
	"phone":           "Telefono numeris",
	"password":        "Slaptažodis",
	"old_password":    "Senas slaptažodis",
	"new_password":    "Naujas slaptažodis",
	"repeat_password": "Pakartokite naują slaptažodį",
	"patient_id":      "Paciento ID",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateForm runs the struct's validate tags and converts failures into a
// *ValidationError with user-facing messages.
func validateForm(form interface{}) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Laukas „%s“ yra privalomas.", label)
	case "email":
		return "Neteisingas el. pašto adresas"
	case "min":
		return fmt.Sprintf("Laukas „%s“ turi būti bent %s simbolių.", label, fe.Param())
	case "max":
		return fmt.Sprintf("Laukas „%s“ negali viršyti %s simbolių.", label, fe.Param())
	case "len":
		return fmt.Sprintf("Laukas „%s“ turi būti lygiai %s simbolių.", label, fe.Param())
	}
	return fmt.Sprintf("Laukas „%s“ užpildytas neteisingai.", label)
}
