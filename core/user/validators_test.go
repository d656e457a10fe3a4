package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/escolaria/escolaria/core"
)

func setupValidators(t *testing.T) *validator.Validate {
	t.Helper()
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func failedTags(err error) map[string]bool {
	tags := make(map[string]bool)
	if vErrs, ok := err.(validator.ValidationErrors); ok {
		for _, vErr := range vErrs {
			tags[vErr.Tag()] = true
		}
	}
	return tags
}

func Test_validatePassword(t *testing.T) {
	validate := setupValidators(t)

	tests := []struct {
		name    string
		nu      NewUser
		wantTag string
	}{
		{name: "too short", nu: NewUser{Password: "Sh0r.t"}, wantTag: pwdMinLenTag},
		{name: "whitespace", nu: NewUser{Password: "Has Sp4ce."}, wantTag: pwdNoSpaceTag},
		{name: "all numeric", nu: NewUser{Password: "123456789"}, wantTag: pwdNotAllNumTag},
		{name: "no uppercase", nu: NewUser{Password: "l0werc.ase"}, wantTag: pwdComplexityTag},
		{name: "no special", nu: NewUser{Password: "NoSpec1als"}, wantTag: pwdComplexityTag},
		{name: "similar to username", nu: NewUser{Username: "awesome_dev1", Password: "Awesome_d3v1!"}, wantTag: pwdAttrSimTag},
		{name: "ok", nu: NewUser{Password: "G00d.Pa55word"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.nu.Name = "Test User"
			tt.nu.Email = "test@test.mx"
			tt.nu.PasswordConfirm = tt.nu.Password

			err := validate.Struct(tt.nu)
			tags := failedTags(err)
			if tt.wantTag == "" {
				for _, pwdTag := range []string{pwdMinLenTag, pwdNoSpaceTag, pwdNotAllNumTag, pwdComplexityTag, pwdAttrSimTag} {
					if tags[pwdTag] {
						t.Errorf("unexpected failure %s; err %v", pwdTag, err)
					}
				}
				return
			}
			if !tags[tt.wantTag] {
				t.Errorf("want tag %s; got err %v", tt.wantTag, err)
			}
		})
	}
}

func Test_usernameOrEmailRequired(t *testing.T) {
	validate := setupValidators(t)

	nu := NewUser{Name: "Test User", Password: "G00d.Pa55word", PasswordConfirm: "G00d.Pa55word"}
	tags := failedTags(validate.Struct(nu))
	if !tags[usernameOrEmailTag] {
		t.Errorf("want tag %s", usernameOrEmailTag)
	}

	nu.Email = "test@test.mx"
	tags = failedTags(validate.Struct(nu))
	if tags[usernameOrEmailTag] {
		t.Error("should pass with email only")
	}
}
