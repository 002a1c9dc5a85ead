package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResult(t *testing.T) {
	body := []byte(`{"total_transactions":100,"flagged_count":7,"risk_score":0.42,
		"compliance_report":"<p>ok</p>","transactions":[{"id":1},{"id":2}]}`)

	res, err := DecodeResult(body)
	require.NoError(t, err)
	assert.Equal(t, 100, res.TotalTransactions)
	assert.Equal(t, 7, res.FlaggedCount)
	assert.True(t, res.RiskScore.Valid)
	assert.InDelta(t, 0.42, res.RiskScore.Value, 1e-9)
	assert.Equal(t, "<p>ok</p>", res.ComplianceReport)
	require.Len(t, res.Transactions, 2)
	assert.JSONEq(t, `{"id":1}`, string(res.Transactions[0]))
}

func TestDecodeResultRiskScoreDegrades(t *testing.T) {
	cases := map[string]string{
		"absent":      `{"total_transactions":1}`,
		"null":        `{"risk_score":null}`,
		"string":      `{"risk_score":"high"}`,
		"object":      `{"risk_score":{"v":1}}`,
		"extra field": `{"risk_score":"n/a","status":"Analysis Complete"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := DecodeResult([]byte(body))
			require.NoError(t, err)
			assert.False(t, res.RiskScore.Valid)
		})
	}
}

func TestDecodeResultMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":           ``,
		"not json":        `<html>bad gateway</html>`,
		"null":            `null`,
		"array":           `[1,2,3]`,
		"truncated":       `{"total_transactions":`,
		"wrong type":      `{"total_transactions":"many"}`,
		"report not text": `{"compliance_report":42}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := DecodeResult([]byte(body))
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestRiskScoreMarshal(t *testing.T) {
	b, err := json.Marshal(RiskScore{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = json.Marshal(RiskScore{Value: 0.5, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, "0.5", string(b))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Upload failed", Message(fmt.Errorf("%w: status 500", ErrServerRejected)))
	assert.Equal(t, "Upload failed: analysis service unreachable",
		Message(fmt.Errorf("%w: dial tcp: connection refused", ErrNetworkFault)))
	assert.Equal(t, "Upload failed", Message(errors.New("boom")))

	_, err := DecodeResult([]byte(`null`))
	assert.Equal(t, "Malformed analysis response: expected a JSON object", Message(err))
	assert.Equal(t, "Malformed analysis response", Message(ErrMalformedResponse))
}
