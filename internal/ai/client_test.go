package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"
)

func TestBusinessNarrativeMakesOneCall(t *testing.T) {
	m := &fakeModel{text: "  Orbital Logistics moves cargo to low orbit.  "}
	var creds []string
	c := NewClient(WithDialer(dialerFor(m, &creds)), WithCredential("key-1"))

	got, err := c.BusinessNarrative(context.Background(), BusinessPlanInput{Concept: "Orbital Logistics", Industry: "Aerospace"})
	require.NoError(t, err)
	require.Equal(t, "Orbital Logistics moves cargo to low orbit.", got)
	require.Equal(t, 1, m.calls())
	require.Equal(t, []string{"key-1"}, creds)

	req := m.requests[0]
	require.Equal(t, DefaultTextModel, req.Model)
	require.Contains(t, req.Prompt, "Venture concept: Orbital Logistics")
	require.Contains(t, req.Prompt, "Industry: Aerospace")
	require.Nil(t, req.Schema)
}

func TestIdenticalInputsCallAgain(t *testing.T) {
	m := &fakeModel{text: "answer"}
	c := NewClient(WithDialer(dialerFor(m, nil)), WithCredential("k"))
	for i := 0; i < 3; i++ {
		_, err := c.Concierge(context.Background(), "What do you do?")
		require.NoError(t, err)
	}
	require.Equal(t, 3, m.calls())
}

func TestCallTextErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		modelErr   error
		text       string
		want       Kind
	}{
		{name: "no credential", credential: "", want: KindInvalidCredential},
		{name: "unauthorised", credential: "k", modelErr: genai.APIError{Code: 403, Message: "forbidden"}, want: KindInvalidCredential},
		{name: "bad key message", credential: "k", modelErr: genai.APIError{Code: 400, Message: "API key not valid. Please pass a valid API key."}, want: KindInvalidCredential},
		{name: "wrapped entity not found", credential: "k", modelErr: fmt.Errorf("call: %w", genai.APIError{Code: 404, Message: "Requested entity was not found."}), want: KindInvalidCredential},
		{name: "server error", credential: "k", modelErr: genai.APIError{Code: 503, Message: "overloaded"}, want: KindNetworkFailure},
		{name: "transport", credential: "k", modelErr: errors.New("dial tcp: connection refused"), want: KindNetworkFailure},
		{name: "deadline", credential: "k", modelErr: context.DeadlineExceeded, want: KindNetworkFailure},
		{name: "empty answer", credential: "k", text: "   ", want: KindNetworkFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeModel{text: tt.text, err: tt.modelErr}
			c := NewClient(WithDialer(dialerFor(m, nil)), WithCredential(tt.credential))
			_, err := c.InvestorQA(context.Background(), InvestorQAInput{Company: "Kestrel"})
			require.Error(t, err)

			var aerr *Error
			require.True(t, errors.As(err, &aerr))
			require.Equal(t, tt.want, aerr.Kind)
			require.Equal(t, "investor_qa", aerr.Op)
			require.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestValuationValidatesSchema(t *testing.T) {
	valid := `{"summary":"Solid","method":"Comparables","enterprise_value_low":1.2e7,"enterprise_value_high":1.8e7,` +
		`"revenue_multiple":3.5,"drivers":["growth"],"risks":["concentration"]}`

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "valid", text: valid},
		{name: "fenced", text: "```json\n" + valid + "\n```"},
		{name: "not json", text: "The company is worth a lot.", wantErr: true},
		{name: "truncated", text: valid[:40], wantErr: true},
		{name: "missing required", text: `{"summary":"x","method":"y","enterprise_value_low":1,"enterprise_value_high":2,"drivers":[],"risks":[]}`, wantErr: true},
		{name: "wrong type", text: strings.Replace(valid, `"revenue_multiple":3.5`, `"revenue_multiple":"3.5x"`, 1), wantErr: true},
		{name: "wrong item type", text: strings.Replace(valid, `["growth"]`, `[1,2]`, 1), wantErr: true},
		{name: "trailing data", text: valid + " {}", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeModel{text: tt.text}
			c := NewClient(WithDialer(dialerFor(m, nil)), WithCredential("k"))
			report, err := c.Valuation(context.Background(), ValuationInput{Company: "Borealis", Industry: "Biotech", Revenue: 4e6})
			require.Equal(t, 1, m.calls())
			require.Equal(t, valuationSchema, m.requests[0].Schema)
			if tt.wantErr {
				require.Error(t, err)
				require.Equal(t, KindSchemaMismatch, KindOf(err))
				require.Equal(t, FallbackSchema, FallbackMessage(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, 1.2e7, report.EnterpriseLow)
			require.Equal(t, []string{"growth"}, report.Drivers)
		})
	}
}

func TestUnderwriteRejectsUnknownRecommendation(t *testing.T) {
	m := &fakeModel{text: `{"recommendation":"buy","cap_rate":6.1,"dscr":1.3,"summary":"ok","risks":[],"mitigants":[]}`}
	c := NewClient(WithDialer(dialerFor(m, nil)), WithCredential("k"))
	_, err := c.Underwrite(context.Background(), UnderwritingInput{Property: "Harbor Point", PurchasePrice: 2.4e7, NOI: 1.5e6, LoanToValue: 65})
	require.Equal(t, KindSchemaMismatch, KindOf(err))

	m.text = `{"recommendation":"proceed_with_conditions","cap_rate":6.1,"dscr":1.3,"summary":"ok","risks":["rate"],"mitigants":["cap"]}`
	report, err := c.Underwrite(context.Background(), UnderwritingInput{Property: "Harbor Point"})
	require.NoError(t, err)
	require.Equal(t, "proceed_with_conditions", report.Recommendation)
	require.Equal(t, 1.3, report.DSCR)
}

func TestMarketSentimentIsGrounded(t *testing.T) {
	m := &fakeModel{text: `{"label":"neutral","score":0.1,"region":"United States","summary":"Mixed","signals":["rates"]}`}
	c := NewClient(WithDialer(dialerFor(m, nil)), WithCredential("k"))

	report, err := c.MarketSentiment(context.Background(), SentimentInput{Sector: "Multifamily"})
	require.NoError(t, err)
	require.Equal(t, "neutral", report.Label)

	req := m.requests[0]
	require.True(t, req.Grounded)
	require.Contains(t, req.Prompt, "national view")
	require.Contains(t, req.Prompt, "Respond with JSON only")

	_, err = c.MarketSentiment(context.Background(), SentimentInput{Sector: "Office", Location: &Coordinates{Latitude: 40.7128, Longitude: -74.006}})
	require.NoError(t, err)
	require.Contains(t, m.requests[1].Prompt, "latitude 40.713")
}

func TestFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := &fakeModel{err: errors.New("boom")}
	c := NewClient(WithDialer(dialerFor(m, nil)), WithCredential("k"), WithLogger(zap.New(core)))

	_, err := c.Concierge(context.Background(), "hello")
	require.Error(t, err)
	entries := logs.FilterMessage("ai: call failed").All()
	require.Len(t, entries, 1)
	require.Equal(t, "concierge", entries[0].ContextMap()["op"])
	require.Equal(t, string(KindNetworkFailure), entries[0].ContextMap()["kind"])
}

func TestFallbackMessage(t *testing.T) {
	require.Equal(t, FallbackNetwork, FallbackMessage(errors.New("anything")))
	require.Equal(t, FallbackNetwork, FallbackMessage(&Error{Kind: KindNetworkFailure}))
	require.Equal(t, FallbackCredential, FallbackMessage(&Error{Kind: KindInvalidCredential}))
	require.Equal(t, FallbackSchema, FallbackMessage(&Error{Kind: KindSchemaMismatch}))
}
