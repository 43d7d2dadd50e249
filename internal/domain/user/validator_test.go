package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsValidator_ValidateLogin(t *testing.T) {
	v := NewCredentialsValidator()

	tests := []struct {
		name    string
		login   string
		wantErr bool
	}{
		{name: "latin", login: "runner42"},
		{name: "cyrillic", login: "бегун"},
		{name: "punctuation", login: "jane.doe-run_1"},
		{name: "too short", login: "ab", wantErr: true},
		{name: "two cyrillic runes", login: "ёж", wantErr: true},
		{name: "too long", login: strings.Repeat("a", 33), wantErr: true},
		{name: "space", login: "long run", wantErr: true},
		{name: "at sign", login: "me@home", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateLogin(tt.login)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadLogin)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCredentialsValidator_ValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		rules    []PasswordRule
		password string
		wantErr  string
	}{
		{name: "strong", password: "P@ssw0rd123!"},
		{name: "too short", password: "Ab1!", wantErr: "минимум 8"},
		{name: "too long", password: "Aa1!" + strings.Repeat("x", 70), wantErr: "больше 72"},
		{name: "no upper", password: "p@ssw0rd", wantErr: "заглавную"},
		{name: "no lower", password: "P@SSW0RD", wantErr: "строчную"},
		{name: "no digit", password: "P@ssword", wantErr: "цифру"},
		{name: "no symbol", password: "Passw0rd", wantErr: "спецсимвол"},
		{name: "custom rules", rules: []PasswordRule{RuleDigit}, password: "12345678"},
		{name: "custom rules fail", rules: []PasswordRule{RuleDigit}, password: "abcdefgh", wantErr: "цифру"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCredentialsValidator(tt.rules...).ValidatePassword(tt.password)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, ErrWeakPassword)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCredentialsValidator_ValidateRegister(t *testing.T) {
	v := NewCredentialsValidator()

	assert.NoError(t, v.ValidateRegister("runner", "P@ssw0rd123!"))
	assert.ErrorIs(t, v.ValidateRegister("ab", "P@ssw0rd123!"), ErrBadLogin)
	assert.ErrorIs(t, v.ValidateRegister("runner", "short"), ErrWeakPassword)
}

func TestNewCredentialsValidator_DefaultRules(t *testing.T) {
	assert.Len(t, NewCredentialsValidator().rules, 4)
	assert.Len(t, NewCredentialsValidator(RuleLower).rules, 1)
}
