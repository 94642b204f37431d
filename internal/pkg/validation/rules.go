package validation

import (
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Student ID limits shared by the request validators and the record stores
const (
	StudentIDMinLength = 5
	StudentIDMaxLength = 20
)

// StudentIDTag is the validator tag for human-facing student identifiers
const StudentIDTag = "studentid"

// ValidStudentID reports whether id is long enough to be persisted.
// Length is counted in characters, matching validator's min/max on strings.
func ValidStudentID(id string) bool {
	n := utf8.RuneCountInString(id)
	return strings.TrimSpace(id) != "" && n >= StudentIDMinLength && n <= StudentIDMaxLength
}

func validateStudentID(fl validator.FieldLevel) bool {
	return ValidStudentID(fl.Field().String())
}

// jsonFieldName reports struct fields by their JSON name so messages read
// "studentId is required" rather than "StudentID is required".
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// Register installs the custom rules on v
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)
	return v.RegisterValidation(StudentIDTag, validateStudentID)
}

var registerOnce sync.Once

// RegisterWithGin installs the custom rules on gin's binding validator.
// Safe to call more than once.
func RegisterWithGin() error {
	var err error
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			err = Register(v)
		}
	})
	return err
}
