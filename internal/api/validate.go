package api

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

type Credentials struct {
	StudentID string `json:"student_id" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Role      Role   `json:"role" validate:"required,oneof=student admin"`
}

// NewResult is the wire payload of POST /api/results. Marks is numeric.
type NewResult struct {
	StudentID string  `json:"student_id" validate:"required"`
	SubjectID string  `json:"subject_id" validate:"required"`
	Marks     float64 `json:"marks" validate:"gte=0"`
	Semester  string  `json:"semester" validate:"required"`
	Year      string  `json:"year" validate:"required"`
}

// ResultDraft is the admin's add-result form as typed.
type ResultDraft struct {
	StudentID string
	SubjectID string
	Marks     string
	Semester  string
	Year      string
}

// Payload coerces the draft's marks to a number and validates the result.
func (d ResultDraft) Payload() (NewResult, error) {
	raw := strings.TrimSpace(d.Marks)
	if raw == "" {
		return NewResult{}, &ValidationError{Fields: []string{"marks"}, Message: "marks is required"}
	}
	marks, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(marks) || math.IsInf(marks, 0) {
		return NewResult{}, &ValidationError{Fields: []string{"marks"}, Message: "marks must be a number"}
	}

	payload := NewResult{
		StudentID: strings.TrimSpace(d.StudentID),
		SubjectID: strings.TrimSpace(d.SubjectID),
		Marks:     marks,
		Semester:  strings.TrimSpace(d.Semester),
		Year:      strings.TrimSpace(d.Year),
	}
	if err := Validate(payload); err != nil {
		return NewResult{}, err
	}
	return payload, nil
}

// ResolveSubject finds the subject ref names, by id or by case-insensitive code.
func ResolveSubject(subjects []Subject, ref string) (Subject, error) {
	ref = strings.TrimSpace(ref)
	for _, s := range subjects {
		if s.ID == ref {
			return s, nil
		}
	}
	for _, s := range subjects {
		if strings.EqualFold(s.Code, ref) {
			return s, nil
		}
	}
	return Subject{}, &ValidationError{Fields: []string{"subject_id"}, Message: fmt.Sprintf("unknown subject %q", ref)}
}

type NewSubject struct {
	Name    string `json:"name" validate:"required"`
	Code    string `json:"code" validate:"required"`
	Credits int    `json:"credits" validate:"gte=1,lte=30"`
}

// SubjectDraft is the admin's add-subject form as typed. Credits defaults to 3.
type SubjectDraft struct {
	Name    string
	Code    string
	Credits string
}

func (d SubjectDraft) Payload() (NewSubject, error) {
	credits := 3
	if raw := strings.TrimSpace(d.Credits); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return NewSubject{}, &ValidationError{Fields: []string{"credits"}, Message: "credits must be a whole number"}
		}
		credits = n
	}

	payload := NewSubject{
		Name:    strings.TrimSpace(d.Name),
		Code:    strings.TrimSpace(d.Code),
		Credits: credits,
	}
	if err := Validate(payload); err != nil {
		return NewSubject{}, err
	}
	return payload, nil
}

// Validate checks a request struct against its validate tags.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	ve := &ValidationError{}
	var msgs []string
	for _, e := range fieldErrs {
		ve.Fields = append(ve.Fields, e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, e.Field()+" is required")
		case "email":
			msgs = append(msgs, e.Field()+" must be a valid email")
		case "oneof":
			msgs = append(msgs, e.Field()+" must be one of: "+e.Param())
		case "gte":
			msgs = append(msgs, e.Field()+" must be at least "+e.Param())
		case "lte":
			msgs = append(msgs, e.Field()+" must be at most "+e.Param())
		default:
			msgs = append(msgs, e.Field()+" is invalid")
		}
	}
	ve.Message = strings.Join(msgs, "; ")
	return ve
}
