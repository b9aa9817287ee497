package validator

import (
	"errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/validation"
	"testing"
)

func validRegistration() model.Registration {
	return model.Registration{
		Email:     "asha@example.com",
		Password:  "correct-horse",
		FirstName: "Asha",
		LastName:  "Verma",
		Phone:     "9876543210",
	}
}

func TestValidate_Registration(t *testing.T) {
	v := NewUserValidator(logger.Discard())

	tests := []struct {
		name      string
		mutate    func(*model.Registration)
		wantField string
	}{
		{name: "valid", mutate: func(r *model.Registration) {}},
		{name: "bad email", mutate: func(r *model.Registration) { r.Email = "not-an-email" }, wantField: "email"},
		{name: "short password", mutate: func(r *model.Registration) { r.Password = "short" }, wantField: "password"},
		{name: "one letter first name", mutate: func(r *model.Registration) { r.FirstName = "A" }, wantField: "first_name"},
		{name: "phone with letters", mutate: func(r *model.Registration) { r.Phone = "98765abcde" }, wantField: "phone"},
		{name: "phone too short", mutate: func(r *model.Registration) { r.Phone = "98765" }, wantField: "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			tt.mutate(&reg)

			err := v.Validate(&reg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var fieldErrs validation.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				t.Fatalf("Validate() error = %v, want ValidationErrors", err)
			}
			if len(fieldErrs) != 1 || fieldErrs[0].Field != tt.wantField {
				t.Errorf("Validate() errors = %v, want one on %s", fieldErrs, tt.wantField)
			}
		})
	}
}

func TestValidate_Credentials(t *testing.T) {
	v := NewUserValidator(logger.Discard())

	err := v.Validate(&model.Credentials{})
	var fieldErrs validation.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) != 2 {
		t.Errorf("Validate() = %v, want errors on email and password", err)
	}
}
