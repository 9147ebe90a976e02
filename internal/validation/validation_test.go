package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "user@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "missing local part",
			email:   "@example.com",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "valid name",
			input:   "Ayşe Yılmaz",
			wantErr: false,
		},
		{
			name:    "single name",
			input:   "Ali",
			wantErr: false,
		},
		{
			name:    "empty name",
			input:   "",
			wantErr: true,
		},
		{
			name:    "name too short",
			input:   "J",
			wantErr: true,
		},
		{
			name:    "name with apostrophe",
			input:   "O'Brien",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestIsAudience(t *testing.T) {
	for _, target := range []string{"all", "students", "teachers", "parents", "grade_1", "grade_12"} {
		assert.True(t, IsAudience(target), target)
	}
	for _, target := range []string{"", "everyone", "grade_", "grade_0", "grade_x", "grade_123", "Students"} {
		assert.False(t, IsAudience(target), target)
	}
}

type announceForm struct {
	Title    string `json:"title" validate:"notblank,max=20"`
	Audience string `json:"audience" validate:"audience"`
	Score    int    `json:"score" validate:"gte=1,lte=10"`
}

func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, Struct(announceForm{Title: "Kitap haftası", Audience: "grade_3", Score: 5}))
	})

	t.Run("collects every field", func(t *testing.T) {
		err := Struct(announceForm{Title: "  ", Audience: "nobody", Score: 11})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalid))

		var fieldErrs Errors
		require.True(t, errors.As(err, &fieldErrs))
		require.Len(t, fieldErrs, 3)
		assert.Equal(t, "title", fieldErrs[0].Field)
		assert.Equal(t, "is required", fieldErrs[0].Message)
		assert.Equal(t, "audience", fieldErrs[1].Field)
		assert.Equal(t, "score", fieldErrs[2].Field)
		assert.Equal(t, "must be at most 10", fieldErrs[2].Message)
	})
}
