// AngelaMos | 2026
// policy_test.go

package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

var testPolicy = Policy{EmailDomain: "records.local"}

func TestPolicy_PrimordialEmail(t *testing.T) {
	p := Policy{EmailDomain: "Records.Local"}

	assert.Equal(t, "admin@records.local", p.PrimordialEmail())
	assert.True(t, p.IsPrimordial("ADMIN@records.local"))
	assert.False(t, p.IsPrimordial("admin2@records.local"))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		in   UserInput
		want ValidationErrors
	}{
		{
			name: "valid",
			in:   UserInput{Name: "Ada", Email: "Valid1!@records.local", Password: "Abc12345!"},
		},
		{
			name: "email domain is case-insensitive",
			in:   UserInput{Name: "Ada", Email: "ada@RECORDS.local", Password: "Abc12345!"},
		},
		{
			name: "foreign domain",
			in:   UserInput{Name: "Ada", Email: "a@other.com", Password: "Abc12345!"},
			want: ValidationErrors{"email must end with @records.local"},
		},
		{
			name: "short password",
			in:   UserInput{Name: "Ada", Email: "ada@records.local", Password: "Ab1!"},
			want: ValidationErrors{"password must be at least 8 characters"},
		},
		{
			name: "symbol outside the allowed set",
			in:   UserInput{Name: "Ada", Email: "ada@records.local", Password: "Abc12345~"},
			want: ValidationErrors{"password must contain one of " + passwordSymbols},
		},
		{
			name: "every rule broken at once",
			in:   UserInput{Name: "  ", Email: "bob@gmail.com", Password: "abc"},
			want: ValidationErrors{
				"name is required",
				"email must end with @records.local",
				"password must be at least 8 characters",
				"password must contain an uppercase letter",
				"password must contain a digit",
				"password must contain one of " + passwordSymbols,
			},
		},
		{
			name: "missing fields",
			in:   UserInput{},
			want: ValidationErrors{"name is required", "email is required", "password is required"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.in, testPolicy)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tc.want, verrs)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestValidateUpdate_PasswordOptional(t *testing.T) {
	in := UserInput{Name: "Ada", Email: "ada@records.local"}

	assert.NoError(t, ValidateUpdate(in, testPolicy))
	assert.Error(t, Validate(in, testPolicy))

	in.Password = "weak"
	assert.Error(t, ValidateUpdate(in, testPolicy))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Abc12345!"))
	assert.ErrorIs(t, ValidatePassword(""), core.ErrInvalidInput)
	assert.ErrorContains(t, ValidatePassword("abcdefgh"), "uppercase")
}
