package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/dundas/lightauth/db/mock"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "user@example.com", false},
		{"valid email with plus tag", "user+tag@example.com", false},
		{"valid email with subdomain", "user@mail.example.com", false},
		{"empty email", "", true},
		{"missing at sign", "userexample.com", true},
		{"missing domain", "user@", true},
		{"missing local part", "@example.com", true},
		{"display name form", "User <user@example.com>", true},
		{"embedded space", "us er@example.com", true},
		{"overlong email", strings.Repeat("a", 243) + "@example.com", true},
		{"longest accepted email", strings.Repeat("a", 242) + "@example.com", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEmail(tc.email)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tc.email, err, tc.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, &mock.Db{})

	if err := app.validatePassword("12345678"); err != nil {
		t.Errorf("validatePassword() with 8 characters failed: %v", err)
	}
	err := app.validatePassword("1234567")
	if err == nil {
		t.Fatal("validatePassword() with 7 characters expected error, got nil")
	}
	if !errors.Is(err, ErrPasswordComplexity) {
		t.Errorf("validatePassword() error = %v, want ErrPasswordComplexity", err)
	}
	if !strings.Contains(err.Message, "8 characters") {
		t.Errorf("error message %q does not name the minimum", err.Message)
	}
}

func TestValidatePasswordConfiguredMinimum(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, &mock.Db{})
	cfg := *app.Config()
	cfg.Passwords.MinLength = 12
	app.configProvider.Update(&cfg)

	if err := app.validatePassword("12345678"); err == nil {
		t.Error("validatePassword() below configured minimum expected error, got nil")
	}
	if err := app.validatePassword("123456789012"); err != nil {
		t.Errorf("validatePassword() at configured minimum failed: %v", err)
	}
}
