package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bibbank/finance-service/pkg/money"
)

// AssertErrorContains checks that err contains the expected substring.
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), expected)
	}
}

// AssertDecimal compares decimals by value, so 1000 equals 1000.00.
func AssertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) bool {
	t.Helper()
	want := decimal.RequireFromString(expected)
	if want.Equal(actual) {
		return true
	}
	return assert.Fail(t, "decimal mismatch: expected "+want.String()+", got "+actual.String(), msgAndArgs...)
}

// AssertMoney checks currency and amount of a money.Money value.
func AssertMoney(t *testing.T, expected string, currency money.Currency, actual money.Money, msgAndArgs ...interface{}) bool {
	t.Helper()
	if !assert.Equal(t, currency.Code(), actual.Currency().Code(), msgAndArgs...) {
		return false
	}
	return AssertDecimal(t, expected, actual.Amount(), msgAndArgs...)
}
