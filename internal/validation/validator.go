// Package validation wraps go-playground/validator with field-keyed error maps and the
// cross-field rules used by job-board forms.
//
// Two custom tags are registered:
//
//	phone_region=Field  the value must be a valid phone number for the region held in Field
//	national_id=Field   the value must satisfy the national-ID rule registered for Field's region
//
// Regions without a registered national-ID rule accept any non-empty value.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// NationalIDRule reports whether idNumber is acceptable for one region.
type NationalIDRule func(idNumber string) bool

// FieldErrors maps a payload field (JSON name, dotted for nesting) to its messages.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msgs := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator validates tagged structs.
type Validator struct {
	validate *validator.Validate

	mu          sync.RWMutex
	nationalIDs map[string]NationalIDRule

	labels sync.Map // reflect.Type -> map[string]string
}

// New builds a Validator with the job-board rules registered.
func New() *Validator {
	v := &Validator{
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		nationalIDs: make(map[string]NationalIDRule),
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister := func(tag string, fn validator.Func) {
		if err := v.validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}
	mustRegister("phone_region", validatePhoneForRegion)
	mustRegister("national_id", v.validateNationalID)

	return v
}

// RegisterNationalIDRule installs the rule used for region (ISO 3166-1 alpha-2, case-insensitive).
func (v *Validator) RegisterNationalIDRule(region string, rule NationalIDRule) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nationalIDs[normalizeRegion(region)] = rule
}

// Struct validates s and returns FieldErrors when any rule fails.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	labels := v.labelsFor(reflect.TypeOf(s))
	out := FieldErrors{}
	for _, fe := range validationErrors {
		key := fieldKey(fe)
		out[key] = append(out[key], message(fe, labels))
	}
	return out
}

// ValidPhoneForRegion reports whether phone parses and is assigned within region.
func ValidPhoneForRegion(phone, region string) bool {
	region = normalizeRegion(region)
	if region == "" || strings.TrimSpace(phone) == "" {
		return false
	}
	num, err := phonenumbers.Parse(phone, region)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumberForRegion(num, region)
}

func validatePhoneForRegion(fl validator.FieldLevel) bool {
	return ValidPhoneForRegion(fl.Field().String(), siblingString(fl))
}

func (v *Validator) validateNationalID(fl validator.FieldLevel) bool {
	v.mu.RLock()
	rule, ok := v.nationalIDs[normalizeRegion(siblingString(fl))]
	v.mu.RUnlock()
	if !ok {
		return true
	}
	return rule(strings.TrimSpace(fl.Field().String()))
}

func siblingString(fl validator.FieldLevel) string {
	parent := fl.Parent()
	if parent.Kind() == reflect.Ptr {
		parent = parent.Elem()
	}
	field := parent.FieldByName(fl.Param())
	if !field.IsValid() || field.Kind() != reflect.String {
		return ""
	}
	return field.String()
}

func normalizeRegion(region string) string {
	return strings.ToUpper(strings.TrimSpace(region))
}

// fieldKey drops the root struct name: "ApplicationInput.documents[0].url" -> "documents[0].url".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError, labels map[string]string) string {
	label, ok := labels[fe.StructField()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "url":
		return "Invalid URL format"
	case "email":
		return "Invalid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	case "phone_region":
		return "Invalid phone number for the selected region"
	case "national_id":
		return "Invalid ID number for the selected region"
	default:
		return label + " is invalid"
	}
}

// labelsFor collects `label` struct tags by Go field name across t and its nested structs.
func (v *Validator) labelsFor(t reflect.Type) map[string]string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := v.labels.Load(t); ok {
		return cached.(map[string]string)
	}
	labels := map[string]string{}
	collectLabels(t, labels, map[reflect.Type]bool{})
	v.labels.Store(t, labels)
	return labels
}

func collectLabels(t reflect.Type, into map[string]string, seen map[reflect.Type]bool) {
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || seen[t] {
		return
	}
	seen[t] = true
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if label := f.Tag.Get("label"); label != "" {
			if _, exists := into[f.Name]; !exists {
				into[f.Name] = label
			}
		}
		collectLabels(f.Type, into, seen)
	}
}
