package valueobject

import (
	"fmt"
	"regexp"
)

// AccountCode is a chart-of-accounts code of the uniform chart, a three digit
// main account optionally followed by sub-account segments (e.g. "300", "257.01").
type AccountCode struct {
	code string
}

var accountCodeRegex = regexp.MustCompile(`^[1-9][0-9]{2}(\.[0-9]{1,4}){0,3}$`)

func NewAccountCode(code string) (AccountCode, error) {
	if !accountCodeRegex.MatchString(code) {
		return AccountCode{}, fmt.Errorf("invalid account code %q: must match NNN or NNN.NN[.NN]", code)
	}
	return AccountCode{code: code}, nil
}

func MustAccountCode(code string) AccountCode {
	ac, err := NewAccountCode(code)
	if err != nil {
		panic(err)
	}
	return ac
}

func (a AccountCode) String() string { return a.code }
func (a AccountCode) IsZero() bool { return a.code == "" }

// Main returns the three digit main account.
func (a AccountCode) Main() string {
	if len(a.code) < 3 {
		return a.code
	}
	return a.code[:3]
}

func (a AccountCode) Equal(other AccountCode) bool {
	return a.code == other.code
}

// MarshalText implements encoding.TextMarshaler.
func (a AccountCode) MarshalText() ([]byte, error) { return []byte(a.code), nil }

// UnmarshalText implements encoding.TextUnmarshaler. An empty code decodes to the zero value.
func (a *AccountCode) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = AccountCode{}
		return nil
	}
	ac, err := NewAccountCode(string(text))
	if err != nil {
		return err
	}
	*a = ac
	return nil
}
