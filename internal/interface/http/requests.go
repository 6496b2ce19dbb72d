package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hjun-park/backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST BODIES
// ══════════════════════════════════════════════════════════════════════════════

type savePointRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type syncMediaRequest struct {
	Tags      []string `json:"tags" validate:"max=30,dive,max=50"`
	ImageURLs []string `json:"image_urls" validate:"max=20,dive,required,url"`
}

type addTagsRequest struct {
	Names []string `json:"names" validate:"required,min=1,max=30,dive,required,max=50"`
}

type tagRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

type createPostingRequest struct {
	Title     string   `json:"title" validate:"required,max=200"`
	Content   string   `json:"content" validate:"required,max=10000"`
	ImageURLs []string `json:"image_urls" validate:"max=20,dive,required,url"`
}

type editPostingRequest struct {
	Content   string   `json:"content" validate:"required,max=10000"`
	Tags      []string `json:"tags" validate:"max=30,dive,max=50"`
	ImageURLs []string `json:"image_urls" validate:"max=20,dive,required,url"`
}

// ══════════════════════════════════════════════════════════════════════════════
// DECODING & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return shared.WrapError("http", "Decode", shared.ErrValueOutOfRange, "request body too large", err)
		}
		return shared.WrapError("http", "Decode", shared.ErrInvalidInput, "malformed JSON body", err)
	}
	return validateStruct(dst)
}

func validateStruct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.WrapError("http", "Validate", shared.ErrValidation, "invalid request", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return shared.NewDomainError("http", "Validate", shared.ErrValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return field + " must be a valid URL"
	case "min":
		return fmt.Sprintf("%s must have at least %s items", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
