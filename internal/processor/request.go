package processor

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"study-backend/internal/contents"
)

// Request is the body accepted by the processing endpoint.
type Request struct {
	MaterialID   string `json:"materialId" validate:"required"`
	ContentType  string `json:"contentType" validate:"required,content_kind"`
	Content      string `json:"content" validate:"required"`
	FileURL      string `json:"fileUrl,omitempty"`
	ImageDataURL string `json:"imageDataUrl,omitempty" validate:"omitempty,startswith=data:image/"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("content_kind", func(fl validator.FieldLevel) bool {
		_, ok := contents.ParseKind(fl.Field().String())
		return ok
	})
	return v
}

func (r Request) normalized() Request {
	r.MaterialID = strings.TrimSpace(r.MaterialID)
	r.ContentType = strings.TrimSpace(r.ContentType)
	r.FileURL = strings.TrimSpace(r.FileURL)
	r.ImageDataURL = strings.TrimSpace(r.ImageDataURL)
	if strings.TrimSpace(r.Content) == "" {
		r.Content = ""
	}
	return r
}

// Validate trims the request and checks required fields and the content kind.
func (r Request) Validate() (Request, error) {
	r = r.normalized()
	if err := validate.Struct(r); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return r, &InvalidRequestError{Reason: err.Error()}
		}
		return r, invalidFromValidation(r, verrs)
	}
	return r, nil
}

func invalidFromValidation(r Request, verrs validator.ValidationErrors) *InvalidRequestError {
	var missing []string
	var problems []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			missing = append(missing, fe.Field())
		case "content_kind":
			problems = append(problems, fmt.Sprintf("Unknown content type: %s", r.ContentType))
		case "startswith":
			problems = append(problems, fmt.Sprintf("%s must be an image data URL", fe.Field()))
		default:
			problems = append(problems, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	e := &InvalidRequestError{Missing: missing}
	if len(problems) > 0 {
		e.Reason = strings.Join(problems, "; ")
	}
	return e
}
