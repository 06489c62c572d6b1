package ez

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"go-contacts-api/internal/domain"
)

var registerOnce sync.Once

// RegisterValidators hooks the domain types into gin's validator: field
// errors use JSON names, Date validates as its time value, and "pastdate"
// rejects days after today. "maxbytes" bounds the UTF-8 length of a
// string, which is what bcrypt limits.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
		v.RegisterCustomTypeFunc(func(f reflect.Value) any {
			if d, ok := f.Interface().(domain.Date); ok {
				return d.Time
			}
			return nil
		}, domain.Date{})
		_ = v.RegisterValidation("pastdate", notInFuture)
		_ = v.RegisterValidation("maxbytes", maxBytes)
	})
}

func notInFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	today := domain.DateOf(time.Now())
	return !domain.DateOf(t).After(today.Time)
}

func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil || fl.Field().Kind() != reflect.String {
		return false
	}
	return len(fl.Field().String()) <= n
}

// BindMessage turns binding errors into a short client-facing message.
func BindMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "invalid request: " + err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fieldMessage(fe))
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return f + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", f, map[string]string{"gte": ">=", "lte": "<="}[fe.Tag()], fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", f, fe.Param())
	case "pastdate":
		return f + " must not be in the future"
	default:
		return fmt.Sprintf("%s failed %s validation", f, fe.Tag())
	}
}
