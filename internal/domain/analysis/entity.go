package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Transaction is a backend-owned record. The console holds it but never
// looks inside.
type Transaction = json.RawMessage

// RiskScore is the aggregate score reported by the analysis service.
// Valid is false when the field was absent, null or not a number.
type RiskScore struct {
	Value float64
	Valid bool
}

func (s *RiskScore) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f, ok := v.(float64)
	if !ok {
		*s = RiskScore{}
		return nil
	}
	*s = RiskScore{Value: f, Valid: true}
	return nil
}

func (s RiskScore) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// Result is the outcome returned by the analysis service for one file.
type Result struct {
	TotalTransactions int           `json:"total_transactions"`
	FlaggedCount      int           `json:"flagged_count"`
	RiskScore         RiskScore     `json:"risk_score"`
	ComplianceReport  string        `json:"compliance_report"`
	Transactions      []Transaction `json:"transactions"`
}

// File is a user-selected file held in memory.
type File struct {
	Name string
	Data []byte
}

// Size in bytes.
func (f File) Size() int64 { return int64(len(f.Data)) }

// DecodeResult parses a success body from POST /analyze.
func DecodeResult(body []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedResponse)
	}
	var res Result
	if err := json.Unmarshal(trimmed, &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &res, nil
}
