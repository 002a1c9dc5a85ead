// Package render projects the upload state into what a surface displays.
package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/bryanwahyu/auditor-console/internal/application/upload"
	"github.com/bryanwahyu/auditor-console/internal/domain/analysis"
	"github.com/bryanwahyu/auditor-console/internal/markup"
)

// Panel is the single thing a surface shows for a state.
type Panel string

const (
	PanelNone    Panel = ""
	PanelLoading Panel = "loading"
	PanelError   Panel = "error"
	PanelResults Panel = "results"
)

// View is the display model for one state.
type View struct {
	Panel        Panel
	Error        string
	FileName     string
	Version      uint64
	Total        string
	Flagged      string
	RiskScore    string
	Report       template.HTML
	ReportText   string
	Transactions int
}

func (v View) Loading() bool     { return v.Panel == PanelLoading }
func (v View) HasError() bool    { return v.Panel == PanelError }
func (v View) HasResults() bool  { return v.Panel == PanelResults }
func (v View) TotalLine() string { return "Total: " + v.Total }

func (v View) FlaggedLine() string { return "Flagged: " + v.Flagged }

func (v View) RiskScoreLine() string { return "Risk Score: " + v.RiskScore }

// Renderer turns states into views under a report trust policy.
type Renderer struct {
	Policy markup.Policy
}

func (r Renderer) View(st upload.State) View {
	v := View{FileName: st.FileName, Version: st.Version}
	switch st.Phase {
	case upload.PhaseLoading:
		v.Panel = PanelLoading
	case upload.PhaseFailed:
		v.Panel = PanelError
		v.Error = st.Error
		if v.Error == "" {
			v.Error = "Upload failed"
		}
	case upload.PhaseSucceeded:
		if st.Result == nil {
			return v
		}
		res := st.Result
		v.Panel = PanelResults
		v.Total = fmt.Sprintf("%d", res.TotalTransactions)
		v.Flagged = fmt.Sprintf("%d", res.FlaggedCount)
		v.RiskScore = FormatRiskScore(res.RiskScore)
		v.Report = r.Policy.Render(res.ComplianceReport)
		v.ReportText = markup.PlainText(res.ComplianceReport)
		v.Transactions = len(res.Transactions)
	}
	return v
}

// FormatRiskScore renders two decimals, or nothing when the service sent no
// usable score.
func FormatRiskScore(s analysis.RiskScore) string {
	if !s.Valid {
		return ""
	}
	return fmt.Sprintf("%.2f", s.Value)
}

// Text is the plain-text projection used by the terminal console.
func Text(v View) string {
	switch v.Panel {
	case PanelLoading:
		return "Analyzing transactions..."
	case PanelError:
		return "Error: " + v.Error
	case PanelResults:
		var b strings.Builder
		b.WriteString("Analysis Results\n")
		b.WriteString(v.TotalLine() + "\n")
		b.WriteString(v.FlaggedLine() + "\n")
		b.WriteString(v.RiskScoreLine() + "\n")
		if v.ReportText != "" {
			b.WriteString("\n" + v.ReportText + "\n")
		}
		return strings.TrimRight(b.String(), "\n")
	default:
		return ""
	}
}
