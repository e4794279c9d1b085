package authpage

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// Field names a form input
type Field string

const (
	FieldEmail    Field = "email"
	FieldUsername Field = "username"
	FieldPassword Field = "password"
)

// Fields in render order
var Fields = []Field{FieldEmail, FieldUsername, FieldPassword}

// ParseField accepts one of Fields
func ParseField(raw string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == raw {
			return f, true
		}
	}
	return "", false
}

const (
	MsgEmailRequired    = "E-mail is required"
	MsgEmailInvalid     = "Invalid email address"
	MsgUsernameRequired = "Username is required"
	MsgPasswordRequired = "Password is required"
)

var emailShape = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// FormValues is the auth form payload
type FormValues struct {
	Email    string `form:"email" json:"email"`
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Get returns the value bound to field
func (v FormValues) Get(field Field) string {
	switch field {
	case FieldEmail:
		return v.Email
	case FieldUsername:
		return v.Username
	case FieldPassword:
		return v.Password
	}
	return ""
}

// Set returns a copy of v with field updated
func (v FormValues) Set(field Field, value string) FormValues {
	switch field {
	case FieldEmail:
		v.Email = value
	case FieldUsername:
		v.Username = value
	case FieldPassword:
		v.Password = value
	}
	return v
}

// FormErrors maps a field to its message
type FormErrors map[Field]string

func (e FormErrors) Has(field Field) bool {
	_, ok := e[field]
	return ok
}

// Strings is the template friendly form of e
func (e FormErrors) Strings() map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		out[string(k)] = v
	}
	return out
}

// Validate will run validation rules for the given page context. It is a
// pure function of its inputs, an empty map means the values are valid.
func Validate(values FormValues, pageContext PageContext) FormErrors {
	var emailRules []validation.Rule
	if pageContext.RequiresEmail() {
		emailRules = append(emailRules,
			validation.Required.Error(MsgEmailRequired),
			validation.Match(emailShape).Error(MsgEmailInvalid),
		)
	}

	err := validation.ValidateStruct(&values,
		validation.Field(&values.Email, emailRules...),
		validation.Field(&values.Username, validation.Required.Error(MsgUsernameRequired)),
		validation.Field(&values.Password, validation.Required.Error(MsgPasswordRequired)),
	)

	return formatValidationErrors(err)
}

func formatValidationErrors(err error) FormErrors {
	out := FormErrors{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		out["form"] = err.Error()
		return out
	}

	for name, ferr := range verrs {
		if ferr == nil {
			continue
		}
		out[Field(name)] = ferr.Error()
	}
	return out
}
