package tools

import (
	"fmt"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Constants for identifier validation.
const (
	MaxIdentifierLength = 128
)

// ValidateIdentifier validates a column name.
// Returns nil if valid, or an error describing the problem.
func ValidateIdentifier(name string) error {
	if name == "" {
		return ErrEmptyIdentifier
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("%w: %d characters (max %d)", ErrIdentifierTooLong, len(name), MaxIdentifierLength)
	}
	for i, r := range name {
		if i == 0 {
			// First character must be letter or underscore
			if !unicode.IsLetter(r) && r != '_' {
				return fmt.Errorf("%w: identifier must start with letter or underscore", ErrInvalidCharacter)
			}
		} else {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				return fmt.Errorf("%w: '%c' at position %d", ErrInvalidCharacter, r, i)
			}
		}
	}
	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidateStruct checks v against its `validate` struct tags.
// Failures are reported as ErrInvalidRequest.
func ValidateStruct(v any) error {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	if err := validate.Struct(v); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return InvalidRequestErr("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		}
		return InvalidRequestErr("%s", err.Error())
	}
	return nil
}
