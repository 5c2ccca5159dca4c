// Package inputval validates request structs using `validate` struct tags.
//
// Supported rules: required, max=N, email, date, uuid, oneof=a b c.
// The `label` tag names the field in messages.
package inputval

import (
	"fmt"
	"net/mail"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/google/uuid"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// Result collects field errors in struct order.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the string fields of the struct v (or *v). At most one
// error is reported per field.
func Validate(v any) *Result {
	res := &Result{}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return res
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get("validate")
		if tag == "" || !f.IsExported() {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() != reflect.String {
			continue
		}
		label := f.Tag.Get("label")
		if label == "" {
			label = f.Name
		}
		if fe, ok := check(strings.TrimSpace(fv.String()), label, tag); !ok {
			fe.Field = f.Name
			res.Errors = append(res.Errors, fe)
		}
	}
	return res
}

func check(val, label, tag string) (FieldError, bool) {
	for _, rule := range strings.Split(tag, ",") {
		name, arg, _ := strings.Cut(rule, "=")
		if val == "" && name != "required" {
			continue
		}
		switch name {
		case "required":
			if val == "" {
				return FieldError{Rule: name, Message: label + " is required."}, false
			}
		case "max":
			n, _ := strconv.Atoi(arg)
			if utf8.RuneCountInString(val) > n {
				return FieldError{Rule: name, Message: fmt.Sprintf("%s must be at most %d characters.", label, n)}, false
			}
		case "email":
			if !IsValidEmail(val) {
				return FieldError{Rule: name, Message: "A valid email address is required."}, false
			}
		case "date":
			if !IsValidDate(val) {
				return FieldError{Rule: name, Message: label + " must be a YYYY-MM-DD date."}, false
			}
		case "uuid":
			if !IsValidID(val) {
				return FieldError{Rule: name, Message: label + " must be a valid id."}, false
			}
		case "oneof":
			if !oneOf(val, strings.Fields(arg)) {
				return FieldError{Rule: name, Message: fmt.Sprintf("%s must be one of: %s.", label, strings.Join(strings.Fields(arg), ", "))}, false
			}
		}
	}
	return FieldError{}, true
}

func oneOf(val string, allowed []string) bool {
	for _, a := range allowed {
		if val == a {
			return true
		}
	}
	return false
}

// IsValidEmail accepts a bare addr-spec. Display-name forms are rejected.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// IsValidDate reports whether s is a calendar date in YYYY-MM-DD form.
func IsValidDate(s string) bool {
	_, err := models.ParseDate(strings.TrimSpace(s))
	return err == nil
}

// IsValidID reports whether s parses as a UUID.
func IsValidID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}
