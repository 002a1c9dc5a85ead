package analysisapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/auditor-console/internal/domain/analysis"
)

func testFile() analysis.File {
	return analysis.File{Name: "spend.csv", Data: []byte("transaction_id,amount\n1,10\n")}
}

func TestAnalyzeSendsMultipartFile(t *testing.T) {
	var gotName, gotBody, gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		b, _ := io.ReadAll(file)
		gotName, gotBody = header.Filename, string(b)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_transactions":100,"flagged_count":7,"risk_score":0.42,"compliance_report":"<p>ok</p>","transactions":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/"})
	res, err := c.Analyze(context.Background(), testFile())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/analyze", gotPath)
	assert.Equal(t, "spend.csv", gotName)
	assert.Equal(t, "transaction_id,amount\n1,10\n", gotBody)
	assert.Equal(t, 100, res.TotalTransactions)
	assert.Equal(t, 7, res.FlaggedCount)
	assert.InDelta(t, 0.42, res.RiskScore.Value, 1e-9)
	assert.Equal(t, "<p>ok</p>", res.ComplianceReport)
}

func TestAnalyzeNon2xxIsServerRejected(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"detail":"Missing columns: vendor"}`))
		}))

		c := NewClient(Config{BaseURL: srv.URL})
		res, err := c.Analyze(context.Background(), testFile())
		srv.Close()

		assert.Nil(t, res)
		assert.ErrorIs(t, err, analysis.ErrServerRejected)
		assert.Contains(t, err.Error(), "Missing columns: vendor")
		assert.Equal(t, "Upload failed", analysis.Message(err))
	}
}

func TestAnalyzeUnparsableBodyIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Analyze(context.Background(), testFile())
	assert.ErrorIs(t, err, analysis.ErrMalformedResponse)
	assert.NotErrorIs(t, err, analysis.ErrServerRejected)
}

func TestAnalyzeUnreachableIsNetworkFault(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: url}).Analyze(context.Background(), testFile())
	assert.ErrorIs(t, err, analysis.ErrNetworkFault)
}

func TestAnalyzeTimeoutIsNetworkFault(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}).Analyze(context.Background(), testFile())
	assert.ErrorIs(t, err, analysis.ErrNetworkFault)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"Auditor Agent API Running"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	assert.NoError(t, c.Ping(context.Background()))

	down := NewClient(Config{BaseURL: srv.URL + "/missing"})
	assert.Error(t, down.Ping(context.Background()))
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"boom"}`, "boom"},
		{`{"detail":[{"loc":["file"]}]}`, `[{"loc":["file"]}]`},
		{`Internal Server Error`, "Internal Server Error"},
		{``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorDetail(strings.NewReader(tt.body)))
	}
}
