package user

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

const (
	MinLoginLen    = 3
	MaxLoginLen    = 32
	MinPasswordLen = 8
	// MaxPasswordLen предел bcrypt
	MaxPasswordLen = 72
)

var (
	ErrBadLogin     = errors.New("недопустимый логин")
	ErrWeakPassword = errors.New("слабый пароль")
)

// Validator проверяет учётные данные до обращения к хранилищу
type Validator interface {
	ValidateRegister(login, password string) error
	ValidateLogin(login string) error
	ValidatePassword(password string) error
}

// PasswordRule требование к составу пароля
type PasswordRule struct {
	Name  string
	Match func(r rune) bool
}

var (
	RuleLower  = PasswordRule{Name: "строчную букву", Match: unicode.IsLower}
	RuleUpper  = PasswordRule{Name: "заглавную букву", Match: unicode.IsUpper}
	RuleDigit  = PasswordRule{Name: "цифру", Match: unicode.IsDigit}
	RuleSymbol = PasswordRule{Name: "спецсимвол", Match: func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}}
)

type CredentialsValidator struct {
	rules []PasswordRule
}

// NewCredentialsValidator без правил требует все четыре класса символов
func NewCredentialsValidator(rules ...PasswordRule) *CredentialsValidator {
	if len(rules) == 0 {
		rules = []PasswordRule{RuleLower, RuleUpper, RuleDigit, RuleSymbol}
	}
	return &CredentialsValidator{rules: rules}
}

func (v *CredentialsValidator) ValidateRegister(login, password string) error {
	if err := v.ValidateLogin(login); err != nil {
		return err
	}
	return v.ValidatePassword(password)
}

// ValidateLogin длина в символах, буквы любого алфавита, цифры и "_-."
func (v *CredentialsValidator) ValidateLogin(login string) error {
	n := utf8.RuneCountInString(login)
	if n < MinLoginLen || n > MaxLoginLen {
		return fmt.Errorf("%w: длина от %d до %d символов", ErrBadLogin, MinLoginLen, MaxLoginLen)
	}

	for _, r := range login {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return fmt.Errorf("%w: символ %q не разрешён", ErrBadLogin, r)
		}
	}

	return nil
}

func (v *CredentialsValidator) ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return fmt.Errorf("%w: минимум %d символов", ErrWeakPassword, MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("%w: больше %d байт", ErrWeakPassword, MaxPasswordLen)
	}

	for _, rule := range v.rules {
		found := false
		for _, r := range password {
			if rule.Match(r) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: нужна хотя бы одна %s", ErrWeakPassword, rule.Name)
		}
	}

	return nil
}
