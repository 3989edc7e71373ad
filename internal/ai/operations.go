package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"northgate.capital/web/internal/format"
)

const analystPersona = "You are a senior analyst at Northgate Capital, a capital-advisory firm. " +
	"Write with institutional precision. Never invent named clients or guarantee returns."

// BusinessPlanInput feeds the business narrative widget.
type BusinessPlanInput struct {
	Concept  string
	Industry string
	Stage    string
	Raise    string
}

// BusinessNarrative drafts an executive-summary narrative.
func (c *Client) BusinessNarrative(ctx context.Context, in BusinessPlanInput) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft a concise executive summary for a business plan.\nVenture concept: %s\nIndustry: %s\n", in.Concept, in.Industry)
	if in.Stage != "" {
		fmt.Fprintf(&b, "Stage: %s\n", in.Stage)
	}
	if in.Raise != "" {
		fmt.Fprintf(&b, "Target raise: %s\n", in.Raise)
	}
	b.WriteString("Cover the market opportunity, business model, go-to-market and capital use in four short paragraphs.")
	return c.callText(ctx, "business_narrative", Request{
		System:      analystPersona,
		Prompt:      b.String(),
		Temperature: genai.Ptr[float32](0.7),
	})
}

// InvestorQAInput feeds the investor readiness simulator.
type InvestorQAInput struct {
	Company  string
	Stage    string
	Focus    string
	Question string
}

// InvestorQA simulates a diligence exchange: either answers the founder's
// question as an allocator would probe it, or generates the hardest questions.
func (c *Client) InvestorQA(ctx context.Context, in InvestorQAInput) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Simulate an institutional investor meeting with %s", in.Company)
	if in.Stage != "" {
		fmt.Fprintf(&b, " (%s stage)", in.Stage)
	}
	b.WriteString(".\n")
	if in.Focus != "" {
		fmt.Fprintf(&b, "Diligence focus: %s\n", in.Focus)
	}
	if q := strings.TrimSpace(in.Question); q != "" {
		fmt.Fprintf(&b, "The founder proposes this answer to a likely question: %q\nCritique it and give a stronger answer.", q)
	} else {
		b.WriteString("List the five hardest questions an allocator would ask, each with a one-paragraph model answer.")
	}
	return c.callText(ctx, "investor_qa", Request{
		System:      analystPersona,
		Prompt:      b.String(),
		Temperature: genai.Ptr[float32](0.6),
	})
}

// Concierge answers a visitor question about the firm's services.
func (c *Client) Concierge(ctx context.Context, question string) (string, error) {
	return c.callText(ctx, "concierge", Request{
		System: analystPersona + " You are the site concierge. Point visitors to the relevant service " +
			"(capital raising, M&A, valuation, real-estate development finance, business plans) in under 120 words.",
		Prompt:      strings.TrimSpace(question),
		Temperature: genai.Ptr[float32](0.4),
	})
}

// ValuationInput feeds the valuation widget. Amounts are whole dollars.
type ValuationInput struct {
	Company    string
	Industry   string
	Revenue    float64
	EBITDA     float64
	GrowthRate float64 // percent
}

// ValuationReport is the schema-checked valuation answer.
type ValuationReport struct {
	Summary         string   `json:"summary"`
	Method          string   `json:"method"`
	EnterpriseLow   float64  `json:"enterprise_value_low"`
	EnterpriseHigh  float64  `json:"enterprise_value_high"`
	RevenueMultiple float64  `json:"revenue_multiple"`
	Drivers         []string `json:"drivers"`
	Risks           []string `json:"risks"`
}

var valuationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary":               {Type: genai.TypeString},
		"method":                {Type: genai.TypeString},
		"enterprise_value_low":  {Type: genai.TypeNumber},
		"enterprise_value_high": {Type: genai.TypeNumber},
		"revenue_multiple":      {Type: genai.TypeNumber},
		"drivers":               {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"risks":                 {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"summary", "method", "enterprise_value_low", "enterprise_value_high", "revenue_multiple", "drivers", "risks"},
}

// Valuation produces an indicative enterprise value range.
func (c *Client) Valuation(ctx context.Context, in ValuationInput) (ValuationReport, error) {
	prompt := fmt.Sprintf("Produce an indicative valuation for %s, a company in %s.\n"+
		"Trailing revenue: %s\nTrailing EBITDA: %s\nYear-over-year growth: %s\n"+
		"Use comparable-company multiples. Amounts are US dollars.",
		in.Company, in.Industry, format.FmtUSDCompact(in.Revenue), format.FmtUSDCompact(in.EBITDA), format.FmtPercent(in.GrowthRate))
	return callJSON[ValuationReport](ctx, c, "valuation", Request{
		System:      analystPersona,
		Prompt:      prompt,
		Temperature: genai.Ptr[float32](0.2),
		Schema:      valuationSchema,
	})
}

// UnderwritingInput feeds the real-estate underwriting widget.
type UnderwritingInput struct {
	Property      string
	Market        string
	AssetClass    string
	PurchasePrice float64
	NOI           float64
	LoanToValue   float64 // percent
}

// UnderwritingReport is the schema-checked deal memo.
type UnderwritingReport struct {
	Recommendation string   `json:"recommendation"`
	CapRate        float64  `json:"cap_rate"`
	DSCR           float64  `json:"dscr"`
	Summary        string   `json:"summary"`
	Risks          []string `json:"risks"`
	Mitigants      []string `json:"mitigants"`
}

// Recommendation values accepted from the model.
var underwritingRecommendations = []string{"proceed", "proceed_with_conditions", "decline"}

var underwritingSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"recommendation": {Type: genai.TypeString, Enum: underwritingRecommendations},
		"cap_rate":       {Type: genai.TypeNumber},
		"dscr":           {Type: genai.TypeNumber},
		"summary":        {Type: genai.TypeString},
		"risks":          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"mitigants":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"recommendation", "cap_rate", "dscr", "summary", "risks", "mitigants"},
}

// Underwrite produces a first-pass credit view of a property deal.
func (c *Client) Underwrite(ctx context.Context, in UnderwritingInput) (UnderwritingReport, error) {
	prompt := fmt.Sprintf("Underwrite this real-estate acquisition.\nProperty: %s\nMarket: %s\nAsset class: %s\n"+
		"Purchase price: %s\nStabilised NOI: %s\nLoan-to-value: %s\n"+
		"Compute the going-in cap rate (percent) and DSCR assuming a 30-year amortising loan at current rates.",
		in.Property, in.Market, in.AssetClass,
		format.FmtUSDCompact(in.PurchasePrice), format.FmtUSDCompact(in.NOI), format.FmtPercent(in.LoanToValue))
	return callJSON[UnderwritingReport](ctx, c, "underwriting", Request{
		System:      analystPersona,
		Prompt:      prompt,
		Temperature: genai.Ptr[float32](0.2),
		Schema:      underwritingSchema,
	})
}

// Coordinates of the visitor when location access was granted.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// SentimentInput feeds the market sentiment widget. A nil Location means
// national sentiment.
type SentimentInput struct {
	Sector   string
	Location *Coordinates
}

// SentimentReport is the schema-checked sentiment answer.
type SentimentReport struct {
	Label   string   `json:"label"`
	Score   float64  `json:"score"`
	Region  string   `json:"region"`
	Summary string   `json:"summary"`
	Signals []string `json:"signals"`
}

var sentimentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"label":   {Type: genai.TypeString, Enum: []string{"bullish", "neutral", "bearish"}},
		"score":   {Type: genai.TypeNumber},
		"region":  {Type: genai.TypeString},
		"summary": {Type: genai.TypeString},
		"signals": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"label", "score", "region", "summary", "signals"},
}

// MarketSentiment reads current capital-markets sentiment for a sector,
// grounded in web search.
func (c *Client) MarketSentiment(ctx context.Context, in SentimentInput) (SentimentReport, error) {
	region := "the United States (national view)"
	if in.Location != nil {
		region = fmt.Sprintf("the metro area around latitude %.3f, longitude %.3f", in.Location.Latitude, in.Location.Longitude)
	}
	prompt := fmt.Sprintf("Assess current capital-markets sentiment for the %s sector in %s using recent news. "+
		"Score from -1 (bearish) to 1 (bullish) and list the signals behind it.", in.Sector, region)
	return callJSON[SentimentReport](ctx, c, "market_sentiment", Request{
		System:      analystPersona,
		Prompt:      prompt,
		Temperature: genai.Ptr[float32](0.3),
		Schema:      sentimentSchema,
		Grounded:    true,
	})
}
