package account

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAccountsConfigured is returned when the store holds no accounts.
	ErrNoAccountsConfigured = errors.New("no sender accounts configured")

	// ErrAccountNotFound is matched by *NotFoundError.
	ErrAccountNotFound = errors.New("sender account not found")
)

// NotFoundError reports a requested account name with no match.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sender account %q not found", e.Name)
}

// Is reports whether target is ErrAccountNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrAccountNotFound
}

// Resolve selects the account to send from.
//
// A non-empty requested name must match an account name exactly; the first
// match wins. Without a name the first account flagged as default is used,
// falling back to the first account in the list.
func Resolve(accounts []Account, requested string) (Account, error) {
	if len(accounts) == 0 {
		return Account{}, ErrNoAccountsConfigured
	}

	if requested != "" {
		for _, a := range accounts {
			if a.Name == requested {
				return a, nil
			}
		}
		return Account{}, &NotFoundError{Name: requested}
	}

	for _, a := range accounts {
		if a.IsDefault {
			return a, nil
		}
	}

	return accounts[0], nil
}
