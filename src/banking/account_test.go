package banking

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const richAccountJSON = `{
	"uid": "acct-rich",
	"account_id": {"iban": "NL69INGB0123456789", "other": {"identification": "12345", "scheme_name": "UKSC"}},
	"all_account_ids": [
		{"scheme_name": "BBAN", "identification": "0123456789"},
		{"scheme_name": "IBAN", "identification": "NL69INGB0123456789"}
	],
	"currency": "EUR",
	"owner_name": "J. Doe",
	"display_name": "Main checking",
	"product": "Checking",
	"cash_account_type": "CACC",
	"usage": "PRIV"
}`

const legacyAccountJSON = `{
	"uid": "acct-legacy",
	"iban": "NL69INGB0123456789",
	"account_holder_name": "J. Doe",
	"name": "Main checking",
	"currency": "EUR",
	"account_type": "CACC"
}`

func TestRichAndLegacyShapesAgree(t *testing.T) {
	rich, err := AccountFromAPI(json.RawMessage(richAccountJSON))
	require.NoError(t, err)
	legacy, err := AccountFromAPI(json.RawMessage(legacyAccountJSON))
	require.NoError(t, err)

	assert.Equal(t, rich.IBAN, legacy.IBAN)
	assert.Equal(t, rich.OwnerName, legacy.OwnerName)
	assert.Equal(t, rich.DisplayName, legacy.DisplayName)
	assert.Equal(t, rich.AccountType, legacy.AccountType)
	assert.Equal(t, rich.Currency, legacy.Currency)
}

func TestRichShapeExtras(t *testing.T) {
	account, err := AccountFromAPI(json.RawMessage(richAccountJSON))
	require.NoError(t, err)
	assert.Equal(t, "0123456789", account.BBAN, "BBAN comes from the all_account_ids scan")
	assert.Equal(t, "12345", account.OtherIdentification)
	assert.Equal(t, "UKSC", account.OtherScheme)
}

func TestIBANFallbackFromAllAccountIDs(t *testing.T) {
	raw := json.RawMessage(`{
		"uid": "acct-2",
		"all_account_ids": [{"scheme_name": "IBAN", "identification": "DE89370400440532013000"}]
	}`)
	account, err := AccountFromAPI(raw)
	require.NoError(t, err)
	assert.Equal(t, "DE89370400440532013000", account.IBAN)
}

func TestLocalShapeRoundTrip(t *testing.T) {
	original, err := AccountFromAPI(json.RawMessage(richAccountJSON))
	require.NoError(t, err)

	local, err := original.ToLocal()
	require.NoError(t, err)
	restored, err := AccountFromLocal(local)
	require.NoError(t, err)

	assert.Equal(t, original, restored)
}

func TestFullNameFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    string
	}{
		{"display name", Account{DisplayName: "Main", OwnerName: "J. Doe"}, "Main"},
		{"owner name", Account{OwnerName: "J. Doe", IBAN: "NL69INGB0123456789"}, "J. Doe"},
		{"iban", Account{IBAN: "NL69INGB0123456789"}, "NL69INGB0123456789"},
		{"other identification", Account{OtherIdentification: "12345"}, "12345"},
		{"bban", Account{BBAN: "0123456789"}, "0123456789"},
		{"nothing", Account{}, "(no name)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.account.FullName())
		})
	}
}
