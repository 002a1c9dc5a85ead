package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/auditor-console/internal/application/upload"
	"github.com/bryanwahyu/auditor-console/internal/domain/analysis"
	"github.com/bryanwahyu/auditor-console/internal/markup"
)

func succeeded(res *analysis.Result) upload.State {
	return upload.State{Phase: upload.PhaseSucceeded, Result: res, Version: 2}
}

func TestViewResults(t *testing.T) {
	r := Renderer{Policy: markup.PolicySanitize}
	v := r.View(succeeded(&analysis.Result{
		TotalTransactions: 100,
		FlaggedCount:      7,
		RiskScore:         analysis.RiskScore{Value: 0.42, Valid: true},
		ComplianceReport:  "<p>ok</p>",
		Transactions:      []analysis.Transaction{},
	}))

	assert.True(t, v.HasResults())
	assert.False(t, v.Loading())
	assert.False(t, v.HasError())
	assert.Equal(t, "Total: 100", v.TotalLine())
	assert.Equal(t, "Flagged: 7", v.FlaggedLine())
	assert.Equal(t, "Risk Score: 0.42", v.RiskScoreLine())
	assert.Equal(t, "<p>ok</p>", string(v.Report))
	assert.Equal(t, "ok", v.ReportText)
	assert.Equal(t, 0, v.Transactions)
}

func TestViewExactlyOnePanel(t *testing.T) {
	r := Renderer{}
	cases := []struct {
		state upload.State
		want  Panel
	}{
		{upload.State{Phase: upload.PhaseIdle}, PanelNone},
		{upload.State{Phase: upload.PhaseLoading}, PanelLoading},
		{upload.State{Phase: upload.PhaseFailed, Error: "Upload failed"}, PanelError},
		{succeeded(&analysis.Result{}), PanelResults},
	}
	for _, tc := range cases {
		v := r.View(tc.state)
		assert.Equal(t, tc.want, v.Panel, "phase %s", tc.state.Phase)
		assert.Equal(t, tc.state.Phase == upload.PhaseLoading, v.Loading())
	}
}

func TestViewFailedShowsMessageAndNoResults(t *testing.T) {
	v := Renderer{}.View(upload.State{Phase: upload.PhaseFailed, Error: "Upload failed"})
	assert.True(t, v.HasError())
	assert.Equal(t, "Upload failed", v.Error)
	assert.False(t, v.HasResults())
	assert.Empty(t, v.Report)

	v = Renderer{}.View(upload.State{Phase: upload.PhaseFailed})
	assert.NotEmpty(t, v.Error)
}

func TestFormatRiskScore(t *testing.T) {
	assert.Equal(t, "0.42", FormatRiskScore(analysis.RiskScore{Value: 0.4217, Valid: true}))
	assert.Equal(t, "1.00", FormatRiskScore(analysis.RiskScore{Value: 1, Valid: true}))
	assert.Equal(t, "0.00", FormatRiskScore(analysis.RiskScore{Valid: true}))
	assert.Equal(t, "", FormatRiskScore(analysis.RiskScore{}))
}

func TestViewMissingRiskScoreDegrades(t *testing.T) {
	res, err := analysis.DecodeResult([]byte(`{"total_transactions":3,"flagged_count":0,"risk_score":"n/a"}`))
	assert.NoError(t, err)
	v := Renderer{}.View(succeeded(res))
	assert.Equal(t, "Risk Score: ", v.RiskScoreLine())
	assert.Equal(t, "Total: 3", v.TotalLine())
}

func TestViewReportTrustPolicy(t *testing.T) {
	res := &analysis.Result{ComplianceReport: `<p>ok</p><script>alert(1)</script>`}

	trusted := Renderer{Policy: markup.PolicyTrusted}.View(succeeded(res))
	assert.Equal(t, res.ComplianceReport, string(trusted.Report))

	clean := Renderer{Policy: markup.PolicySanitize}.View(succeeded(res))
	assert.Equal(t, "<p>ok</p>", string(clean.Report))
}

func TestText(t *testing.T) {
	r := Renderer{}
	assert.Equal(t, "", Text(r.View(upload.State{Phase: upload.PhaseIdle})))
	assert.Equal(t, "Analyzing transactions...", Text(r.View(upload.State{Phase: upload.PhaseLoading})))
	assert.Equal(t, "Error: Upload failed", Text(r.View(upload.State{Phase: upload.PhaseFailed, Error: "Upload failed"})))

	out := Text(r.View(succeeded(&analysis.Result{
		TotalTransactions: 100,
		FlaggedCount:      7,
		RiskScore:         analysis.RiskScore{Value: 0.42, Valid: true},
		ComplianceReport:  "<h3>Report</h3><p>All good</p>",
	})))
	assert.Equal(t, "Analysis Results\nTotal: 100\nFlagged: 7\nRisk Score: 0.42\n\nReport\nAll good", out)
}
