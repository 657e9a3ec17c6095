package resource

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestValidator(t *testing.T, opts ...ValidatorOption) *Validator {
	t.Helper()
	opts = append([]ValidatorOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	v, err := NewValidator(opts...)
	require.NoError(t, err)
	return v
}

func requireViolation(t *testing.T, err error, field string) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected *ValidationError, got %T", err)
	assert.Equal(t, field, ve.Field)
	return ve
}

func TestValidate_PhysicalAccountCreate(t *testing.T) {
	v := newTestValidator(t)
	c := Lookup(KindPhysicalAccount)

	tests := []struct {
		name    string
		payload map[string]any
		field   string
		message string
	}{
		{
			name:    "valid",
			payload: map[string]any{"balance": 100.5, "currency": "RUB", "owner": "Ivan Petrov"},
		},
		{
			name:    "missing owner",
			payload: map[string]any{"balance": 100.0, "currency": "RUB"},
			field:   "owner",
			message: "'owner' is a required property",
		},
		{
			name:    "first missing field in declaration order",
			payload: map[string]any{"owner": "x"},
			field:   "balance",
			message: "'balance' is a required property",
		},
		{
			name:    "balance as string",
			payload: map[string]any{"balance": "100", "currency": "RUB", "owner": "x"},
			field:   "balance",
			message: "'balance' must be of type number",
		},
		{
			name:    "unknown currency",
			payload: map[string]any{"balance": 1.0, "currency": "GBP", "owner": "x"},
			field:   "currency",
			message: "'currency' must be one of: RUB, USD, EUR",
		},
		{
			name:    "negative balance",
			payload: map[string]any{"balance": -1.0, "currency": "USD", "owner": "x"},
			field:   "balance",
			message: "'balance' must be greater than or equal to 0",
		},
		{
			name:    "bad status enum",
			payload: map[string]any{"balance": 1.0, "currency": "USD", "owner": "x", "status": "frozen"},
			field:   "status",
			message: "'status' must be one of: active, blocked, closed",
		},
		{
			name:    "type error wins over enum error",
			payload: map[string]any{"balance": 1.0, "currency": "GBP", "owner": 42},
			field:   "owner",
			message: "'owner' must be of type string",
		},
		{
			name:    "unknown keys are ignored",
			payload: map[string]any{"balance": 1.0, "currency": "EUR", "owner": "x", "nickname": 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.payload, c, ModeCreate)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			ve := requireViolation(t, err, tt.field)
			assert.Equal(t, tt.message, ve.Message)
		})
	}
}

func TestValidate_EarliestFieldWinsWithinStage(t *testing.T) {
	v := newTestValidator(t)
	c := Lookup(KindPhysicalAccount)

	err := v.Validate(map[string]any{"balance": "a", "currency": "RUB", "owner": 1}, c, ModeCreate)
	requireViolation(t, err, "balance")
}

func TestValidate_PartialUpdateSkipsRequired(t *testing.T) {
	v := newTestValidator(t)
	c := Lookup(KindPhysicalAccount)

	assert.NoError(t, v.Validate(map[string]any{"status": "blocked"}, c, ModeUpdate))
	assert.NoError(t, v.Validate(map[string]any{}, c, ModeUpdate))

	err := v.Validate(map[string]any{"balance": -5.0}, c, ModeUpdate)
	requireViolation(t, err, "balance")
}

func TestValidate_FullReplaceRequiresUpdatableFields(t *testing.T) {
	v := newTestValidator(t)
	c := Lookup(KindPayment)

	err := v.Validate(map[string]any{"amount": 5.0, "currency": "RUB"}, c, ModeUpdate)
	ve := requireViolation(t, err, "recipient")
	assert.Equal(t, "'recipient' is a required property", ve.Message)

	// account_id is not updatable, so its absence is fine and its presence is ignored.
	assert.NoError(t, v.Validate(map[string]any{
		"amount": 5.0, "currency": "RUB", "recipient": "ACME", "account_id": 12,
	}, c, ModeUpdate))
}

func TestValidate_ServerFieldsIgnoredOnCreate(t *testing.T) {
	v := newTestValidator(t)
	c := Lookup(KindPayment)

	err := v.Validate(map[string]any{
		"amount": 10.0, "currency": "USD", "recipient": "r", "account_id": "a",
		"status": "NOT_A_STATUS",
	}, c, ModeCreate)
	assert.NoError(t, err)
}

func TestValidate_PaymentMinimumAmount(t *testing.T) {
	v := newTestValidator(t)

	err := v.Validate(map[string]any{
		"amount": 0.0, "currency": "USD", "recipient": "r", "account_id": "a",
	}, Lookup(KindPayment), ModeCreate)
	ve := requireViolation(t, err, "amount")
	assert.Equal(t, "'amount' must be greater than or equal to 0.01", ve.Message)

	err = v.Validate(map[string]any{
		"amount": 0.0, "currency": "USD", "recipient": "r", "account_id": "a",
		"purpose": "tax", "budget_code": "18210102010011000110",
	}, Lookup(KindPM211FZ), ModeCreate)
	assert.NoError(t, err)
}

func TestValidate_VRP(t *testing.T) {
	v := newTestValidator(t)
	c := Lookup(KindVRP)

	base := func() map[string]any {
		return map[string]any{
			"max_amount":        500.0,
			"frequency":         "MONTHLY",
			"valid_until":       "2027-01-01",
			"recipient_account": "RU0440817810099910004312",
		}
	}

	assert.NoError(t, v.Validate(base(), c, ModeCreate))

	p := base()
	p["valid_until"] = "2020-01-01"
	ve := requireViolation(t, v.Validate(p, c, ModeCreate), "valid_until")
	assert.Equal(t, "'valid_until' must be a date in the future", ve.Message)

	p = base()
	p["valid_until"] = fixedNow.Format(time.RFC3339)
	requireViolation(t, v.Validate(p, c, ModeCreate), "valid_until")

	p = base()
	p["valid_until"] = "2027-01-01T10:00:00Z"
	assert.NoError(t, v.Validate(p, c, ModeCreate))

	p = base()
	p["recipient_account"] = "ru04 4081"
	ve = requireViolation(t, v.Validate(p, c, ModeCreate), "recipient_account")
	assert.True(t, strings.HasPrefix(ve.Message, "'recipient_account' does not match pattern"))

	p = base()
	p["frequency"] = "YEARLY"
	requireViolation(t, v.Validate(p, c, ModeCreate), "frequency")

	p = base()
	p["max_amount"] = 0.5
	requireViolation(t, v.Validate(p, c, ModeCreate), "max_amount")

	p = base()
	delete(p, "frequency")
	requireViolation(t, v.Validate(p, c, ModeUpdate), "frequency")
}

func TestValidate_MedicalLengthCeilings(t *testing.T) {
	v := newTestValidator(t)
	c := Lookup(KindMedicalInsured)

	ok := map[string]any{"name": strings.Repeat("я", MaxNameLength), "policy_number": "1234567890"}
	assert.NoError(t, v.Validate(ok, c, ModeCreate))

	long := map[string]any{"name": strings.Repeat("я", MaxNameLength+1), "policy_number": "1"}
	ve := requireViolation(t, v.Validate(long, c, ModeCreate), "name")
	assert.Equal(t, "'name' is too long (maximum 100 characters)", ve.Message)

	policy := map[string]any{"name": "x", "policy_number": strings.Repeat("9", MaxPolicyLength+1)}
	requireViolation(t, v.Validate(policy, c, ModeCreate), "policy_number")

	badDate := map[string]any{"name": "x", "policy_number": "1", "birth_date": "01.02.1990"}
	requireViolation(t, v.Validate(badDate, c, ModeCreate), "birth_date")
}

func TestValidate_MaxLengthOverride(t *testing.T) {
	v := newTestValidator(t, WithMaxLength("name", 5))
	c := Lookup(KindMedicalInsured)

	err := v.Validate(map[string]any{"name": "abcdef", "policy_number": "1"}, c, ModeCreate)
	ve := requireViolation(t, err, "name")
	assert.Equal(t, "'name' is too long (maximum 5 characters)", ve.Message)
}

func TestValidate_EmbeddedTypes(t *testing.T) {
	v := newTestValidator(t)

	consent := map[string]any{"tpp_id": "tpp", "subject": "s", "permissions": []any{"read", 3}}
	ve := requireViolation(t, v.Validate(consent, Lookup(KindConsentPE), ModeCreate), "permissions")
	assert.Equal(t, "'permissions' must be of type array of string", ve.Message)

	agreement := map[string]any{"product_type": "LOAN", "terms": []any{"not", "an", "object"}}
	requireViolation(t, v.Validate(agreement, Lookup(KindProductAgreement), ModeCreate), "terms")

	agreement["terms"] = map[string]any{"rate": 12.5}
	assert.NoError(t, v.Validate(agreement, Lookup(KindProductAgreement), ModeCreate))
}

func TestValidate_Base64Content(t *testing.T) {
	v := newTestValidator(t)
	c := Lookup(KindBankDocument)

	assert.NoError(t, v.Validate(map[string]any{"content": "aGVsbG8=", "signature": "sig"}, c, ModeCreate))
	requireViolation(t, v.Validate(map[string]any{"content": "not base64!", "signature": "sig"}, c, ModeCreate), "content")
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("3f2b8c1e-9a4d-4e6f-8b7a-1c2d3e4f5a6b"))
	for _, bad := range []string{"", "123", "3F2B8C1E-9A4D-4E6F-8B7A-1C2D3E4F5A6B", "{3f2b8c1e-9a4d-4e6f-8b7a-1c2d3e4f5a6b}"} {
		requireViolation(t, ValidateID(bad), ColumnID)
	}
}

func TestProject(t *testing.T) {
	c := Lookup(KindPayment)
	got := Project(c, map[string]any{
		"amount": 1.0, "status": "COMPLETED", "id": "x", "account_id": "a", "extra": true,
	}, ModeUpdate)
	assert.Equal(t, map[string]any{"amount": 1.0}, got)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2027-03-04", time.Date(2027, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"2027-03-04T05:06:07", time.Date(2027, 3, 4, 5, 6, 7, 0, time.UTC)},
		{"2027-03-04T05:06:07Z", time.Date(2027, 3, 4, 5, 6, 7, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), tt.in)
	}

	_, err := ParseTime("tomorrow")
	assert.Error(t, err)
}
