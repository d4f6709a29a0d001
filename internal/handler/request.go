package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collection-engine/internal/domain"
	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/response"
)

// newValidator returns a validator that understands decimal.Decimal fields
// through the decimal_gt and decimal_gte tags.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("decimal_gt", decimalCompare(func(d, bound decimal.Decimal) bool { return d.GreaterThan(bound) }))
	_ = v.RegisterValidation("decimal_gte", decimalCompare(func(d, bound decimal.Decimal) bool { return d.GreaterThanOrEqual(bound) }))
	return v
}

func decimalCompare(ok func(d, bound decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return ok(d, bound)
	}
}

// decode reads a JSON body into dst and validates it. On failure it writes
// the 400 response and returns false.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) bool {
	return decodeBody(w, r, v, dst, false)
}

// decodeOptional is decode for endpoints whose body may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) bool {
	return decodeBody(w, r, v, dst, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		err = nil
	}
	if err != nil {
		response.ErrorWithCode(w, http.StatusBadRequest, customError.ErrCodeInvalidRequest, "Invalid request body", err)
		return false
	}
	if err := v.Struct(dst); err != nil {
		response.ErrorWithCode(w, http.StatusBadRequest, customError.ErrCodeInvalidRequest, "Validation failed", validationError(err))
		return false
	}
	return true
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(fields, "; "))
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (*domain.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, customError.WrapInvalidRequest(name + " must be a YYYY-MM-DD date")
	}
	return &d, nil
}

// requiredDate parses a mandatory YYYY-MM-DD query parameter.
func requiredDate(r *http.Request, name string) (domain.Date, error) {
	d, err := queryDate(r, name)
	if err != nil {
		return domain.Date{}, err
	}
	if d == nil {
		return domain.Date{}, customError.WrapInvalidRequest(name + " is required")
	}
	return *d, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, customError.WrapInvalidRequest(name + " must be a non-negative integer")
	}
	return n, nil
}
