package errors

import (
	"strings"
	"testing"
)

func TestValidateTypeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid package path", "github.com/acme/app.Service", false},
		{"valid short", "logger", false},
		{"valid with dash", "http-client", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"whitespace", "my type", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"static method separator", "Service::Run", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTypeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTypeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidTypeID) {
				t.Errorf("ValidateTypeID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidTypeID)
			}
		})
	}
}

func TestValidateSelector(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"exported", "Run", false},
		{"exported with digits", "Handle2", false},

		{"empty", "", true},
		{"unexported", "run", true},
		{"with dot", "Run.Now", true},
		{"with space", "Run Now", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSelector(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSelector(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOverrideKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "foo", false},
		{"prefixed", ":foo", false},

		{"empty", "", true},
		{"only prefix", ":", true},
		{"double prefix", "::foo", true},
		{"whitespace", "foo bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOverrideKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOverrideKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
