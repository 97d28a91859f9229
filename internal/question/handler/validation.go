package handler

import (
	"strings"
	"unicode/utf8"

	"github.com/askly/askly/backend/go-services/internal/tags"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding rules used by request types to gin's
// validator engine.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("tagname", validTagName)
}

// validTagName accepts names that normalize to 1..MaxNameLength runes without list
// separators.
func validTagName(fl validator.FieldLevel) bool {
	n := tags.NormalizeName(fl.Field().String())
	if n == "" || utf8.RuneCountInString(n) > tags.MaxNameLength {
		return false
	}
	return !strings.ContainsAny(n, ",;#")
}
