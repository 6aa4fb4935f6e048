package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountMarshalKeepsTwoDigits(t *testing.T) {
	cases := map[string]string{
		"0":      `"0.00"`,
		"10":     `"10.00"`,
		"10.9":   `"10.90"`,
		"10.89":  `"10.89"`,
		"-2.5":   `"-2.50"`,
		"13.305": `"13.31"`,
	}
	for in, want := range cases {
		raw, err := json.Marshal(Amt(dec(in)))
		require.NoError(t, err)
		assert.Equal(t, want, string(raw), "input %s", in)
	}
}

func TestQuantityMarshalKeepsThreeDigits(t *testing.T) {
	raw, err := json.Marshal(Qty(dec("2")))
	require.NoError(t, err)
	assert.Equal(t, `"2.000"`, string(raw))

	raw, err = json.Marshal(Qty(dec("0.125")))
	require.NoError(t, err)
	assert.Equal(t, `"0.125"`, string(raw))
}

func TestAmountMarshalInsideStruct(t *testing.T) {
	// The fixed-digit form must survive embedding in a larger payload; a
	// promoted decimal marshaler would trim the trailing zeros.
	payload := struct {
		Paid Amount `json:"paid_amount"`
	}{Paid: Amt(dec("0"))}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"paid_amount":"0.00"}`, string(raw))
}
