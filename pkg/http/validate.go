package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"date"`
	Message string                 `json:"message,omitempty" example:"date is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ReadAndValidateRequest binds req from the request, fills default tags and
// validates it. It returns nil or a []ValidationError.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg = fmt.Sprint(he.Message)
		}
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fe.Field(),
			Message: ruleFor(fe.Tag()).message(fe),
			Params:  ruleFor(fe.Tag()).params(fe),
		})
	}
	return out
}

// rule renders a validator tag. format gets the field name and the tag
// parameter; param names the key the parameter is reported under.
type rule struct {
	format string
	param  string
}

var rules = map[string]rule{
	"required": {format: "%s is required"},
	"datetime": {format: "%s must be a date formatted as %s", param: "layout"},
	"min":      {format: "%s must be at least %s", param: "min"},
	"max":      {format: "%s must be at most %s", param: "max"},
	"gte":      {format: "%s must be greater than or equal to %s", param: "min"},
	"lte":      {format: "%s must be less than or equal to %s", param: "max"},
	"gt":       {format: "%s must be greater than %s", param: "value"},
	"lt":       {format: "%s must be less than %s", param: "value"},
	"oneof":    {format: "%s must be one of: %s", param: "options"},
}

func ruleFor(tag string) rule {
	if r, ok := rules[tag]; ok {
		return r
	}
	return rule{format: "%s failed validation: " + tag}
}

func (r rule) message(fe validator.FieldError) string {
	switch {
	case r.param == "":
		return fmt.Sprintf(r.format, fe.Field())
	case fe.Tag() == "oneof":
		return fmt.Sprintf(r.format, fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case (fe.Tag() == "min" || fe.Tag() == "max") && fe.Kind() == reflect.String:
		return fmt.Sprintf(r.format+" characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf(r.format, fe.Field(), fe.Param())
}

func (r rule) params(fe validator.FieldError) map[string]interface{} {
	if r.param == "" {
		return nil
	}
	if fe.Tag() == "oneof" {
		return map[string]interface{}{r.param: strings.Fields(fe.Param())}
	}
	return map[string]interface{}{r.param: fe.Param()}
}
