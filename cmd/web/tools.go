package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"northgate.capital/web/internal/ai"
	handlersPkg "northgate.capital/web/internal/handlers"
	"northgate.capital/web/internal/httpx"
	mw "northgate.capital/web/internal/middleware"
	"northgate.capital/web/internal/observability"
)

const geoDeniedWarning = "Location access denied — showing national sentiment."

// toolField is one input of a tool form.
type toolField struct {
	Name        string
	Label       string
	Type        string // text, number, textarea, select
	Placeholder string
	Required    bool
	Options     []string
}

// tool is an AI widget that can be mounted on a content page.
type tool struct {
	Key    string
	Title  string
	Intro  string
	Submit string
	Fields []toolField
	Geo    bool // adds the hidden geolocation inputs
	run    func(ctx context.Context, form url.Values) (toolResult, error)
}

// toolResult carries whichever answer shape the tool produces.
type toolResult struct {
	Narrative    string                 `json:"text,omitempty"`
	Valuation    *ai.ValuationReport    `json:"valuation,omitempty"`
	Underwriting *ai.UnderwritingReport `json:"underwriting,omitempty"`
	Sentiment    *ai.SentimentReport    `json:"sentiment,omitempty"`
	Warning      string                 `json:"warning,omitempty"`
}

type toolView struct {
	Key       string
	Title     string
	Intro     string
	Submit    string
	Action    string
	Target    string
	Fields    []toolField
	Geo       bool
	CSRFToken string
	Lang      string
}

type toolResultView struct {
	Key      string
	Lang     string
	Result   toolResult
	Invalid  string
	Fallback string
	Kind     string
}

var stageOptions = []string{"Idea", "Pre-seed", "Seed", "Series A", "Series B+", "Growth"}

var (
	businessPlanTool = &tool{
		Key:    "business-plan",
		Title:  "Draft an executive narrative",
		Intro:  "Give us the concept and the industry. An analyst-grade summary comes back in seconds.",
		Submit: "Generate narrative",
		Fields: []toolField{
			{Name: "concept", Label: "Venture Concept", Type: "text", Placeholder: "Last-mile freight by drone", Required: true},
			{Name: "industry", Label: "Industry Node", Type: "text", Placeholder: "Logistics", Required: true},
			{Name: "stage", Label: "Stage", Type: "select", Options: stageOptions},
			{Name: "raise", Label: "Target raise", Type: "text", Placeholder: "$5M"},
		},
		run: func(ctx context.Context, form url.Values) (toolResult, error) {
			in := newFormReader(form)
			req := ai.BusinessPlanInput{
				Concept:  in.text("concept", true),
				Industry: in.text("industry", true),
				Stage:    in.text("stage", false),
				Raise:    in.text("raise", false),
			}
			if err := in.err(); err != nil {
				return toolResult{}, err
			}
			text, err := aiClient.BusinessNarrative(ctx, req)
			return toolResult{Narrative: text}, err
		},
	}

	valuationTool = &tool{
		Key:    "valuation",
		Title:  "Indicative valuation range",
		Intro:  "A first-pass enterprise value range from three numbers. Not a fairness opinion.",
		Submit: "Estimate value",
		Fields: []toolField{
			{Name: "company", Label: "Company", Type: "text", Required: true},
			{Name: "industry", Label: "Industry", Type: "text", Required: true},
			{Name: "revenue", Label: "Annual revenue (USD)", Type: "number", Placeholder: "12000000", Required: true},
			{Name: "ebitda", Label: "EBITDA (USD)", Type: "number", Placeholder: "2400000"},
			{Name: "growth", Label: "Revenue growth (%)", Type: "number", Placeholder: "35"},
		},
		run: func(ctx context.Context, form url.Values) (toolResult, error) {
			in := newFormReader(form)
			req := ai.ValuationInput{
				Company:    in.text("company", true),
				Industry:   in.text("industry", true),
				Revenue:    in.amount("revenue", true),
				EBITDA:     in.amount("ebitda", false),
				GrowthRate: in.amount("growth", false),
			}
			if err := in.err(); err != nil {
				return toolResult{}, err
			}
			rep, err := aiClient.Valuation(ctx, req)
			if err != nil {
				return toolResult{}, err
			}
			return toolResult{Valuation: &rep}, nil
		},
	}

	underwritingTool = &tool{
		Key:    "underwriting",
		Title:  "Deal underwriting check",
		Intro:  "Screen an acquisition before it reaches committee.",
		Submit: "Underwrite deal",
		Fields: []toolField{
			{Name: "property", Label: "Property", Type: "text", Required: true},
			{Name: "market", Label: "Market", Type: "text", Placeholder: "Austin, TX", Required: true},
			{Name: "asset_class", Label: "Asset class", Type: "select", Options: []string{"Multifamily", "Industrial", "Office", "Retail", "Hospitality", "Mixed-use"}},
			{Name: "purchase_price", Label: "Purchase price (USD)", Type: "number", Required: true},
			{Name: "noi", Label: "Net operating income (USD)", Type: "number", Required: true},
			{Name: "ltv", Label: "Loan to value (%)", Type: "number", Placeholder: "65"},
		},
		run: func(ctx context.Context, form url.Values) (toolResult, error) {
			in := newFormReader(form)
			req := ai.UnderwritingInput{
				Property:      in.text("property", true),
				Market:        in.text("market", true),
				AssetClass:    in.text("asset_class", false),
				PurchasePrice: in.amount("purchase_price", true),
				NOI:           in.amount("noi", true),
				LoanToValue:   in.amount("ltv", false),
			}
			if err := in.err(); err != nil {
				return toolResult{}, err
			}
			rep, err := aiClient.Underwrite(ctx, req)
			if err != nil {
				return toolResult{}, err
			}
			return toolResult{Underwriting: &rep}, nil
		},
	}

	investorQATool = &tool{
		Key:    "investor-qa",
		Title:  "Rehearse the partner meeting",
		Intro:  "Ask the question you dread. We answer it the way an allocator would want to hear it.",
		Submit: "Get answer",
		Fields: []toolField{
			{Name: "company", Label: "Company", Type: "text", Required: true},
			{Name: "stage", Label: "Stage", Type: "select", Options: stageOptions},
			{Name: "focus", Label: "Investor focus", Type: "text", Placeholder: "Climate infrastructure"},
			{Name: "question", Label: "Question", Type: "textarea", Required: true},
		},
		run: func(ctx context.Context, form url.Values) (toolResult, error) {
			in := newFormReader(form)
			req := ai.InvestorQAInput{
				Company:  in.text("company", true),
				Stage:    in.text("stage", false),
				Focus:    in.text("focus", false),
				Question: in.text("question", true),
			}
			if err := in.err(); err != nil {
				return toolResult{}, err
			}
			text, err := aiClient.InvestorQA(ctx, req)
			return toolResult{Narrative: text}, err
		},
	}

	sentimentTool = &tool{
		Key:    "market-sentiment",
		Title:  "Live market sentiment",
		Intro:  "Grounded in current reporting. Share your location for a regional read.",
		Submit: "Read the market",
		Geo:    true,
		Fields: []toolField{
			{Name: "sector", Label: "Sector", Type: "text", Placeholder: "Industrial real estate", Required: true},
		},
		run: func(ctx context.Context, form url.Values) (toolResult, error) {
			in := newFormReader(form)
			req := ai.SentimentInput{Sector: in.text("sector", true)}
			if err := in.err(); err != nil {
				return toolResult{}, err
			}
			var warning string
			if loc, ok := coordinatesFrom(form); ok {
				req.Location = loc
			} else {
				warning = geoDeniedWarning
			}
			rep, err := aiClient.MarketSentiment(ctx, req)
			if err != nil {
				return toolResult{Warning: warning}, err
			}
			return toolResult{Sentiment: &rep, Warning: warning}, nil
		},
	}

	conciergeTool = &tool{
		Key:    "concierge",
		Title:  "Ask the concierge",
		Intro:  "Not sure where to start? Describe your situation.",
		Submit: "Ask",
		Fields: []toolField{
			{Name: "question", Label: "Your question", Type: "textarea", Placeholder: "We are a profitable SaaS company considering a sale in 18 months.", Required: true},
		},
		run: func(ctx context.Context, form url.Values) (toolResult, error) {
			in := newFormReader(form)
			q := in.text("question", true)
			if err := in.err(); err != nil {
				return toolResult{}, err
			}
			text, err := aiClient.Concierge(ctx, q)
			return toolResult{Narrative: text}, err
		},
	}
)

// pageTools is the allow-list of content pages that mount a tool.
var pageTools = map[string]*tool{
	"/business-plans":           businessPlanTool,
	"/valuation":                valuationTool,
	"/real-estate/underwriting": underwritingTool,
	"/investor-readiness":       investorQATool,
	"/market-intelligence":      sentimentTool,
}

var toolsByKey = func() map[string]*tool {
	m := map[string]*tool{conciergeTool.Key: conciergeTool}
	for _, t := range pageTools {
		m[t.Key] = t
	}
	return m
}()

func toolForPage(path string) (*tool, bool) {
	t, ok := pageTools[path]
	return t, ok
}

func toolViewFor(t *tool, vm handlersPkg.PageData) toolView {
	return toolView{
		Key:       t.Key,
		Title:     t.Title,
		Intro:     t.Intro,
		Submit:    t.Submit,
		Action:    "/tools/" + t.Key,
		Target:    "tool-result-" + t.Key,
		Fields:    t.Fields,
		Geo:       t.Geo,
		CSRFToken: vm.CSRFToken,
		Lang:      vm.Lang,
	}
}

// coordinatesFrom reads the browser geolocation fields. Anything but a
// granted status with both coordinates means the national view.
func coordinatesFrom(form url.Values) (*ai.Coordinates, bool) {
	if form.Get("geo_status") != "granted" {
		return nil, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(form.Get("latitude")), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(form.Get("longitude")), 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, false
	}
	return &ai.Coordinates{Latitude: lat, Longitude: lng}, true
}

// inputError lists form fields that were missing or malformed.
type inputError struct {
	Fields []string
}

func (e *inputError) Error() string {
	return "missing or invalid: " + strings.Join(e.Fields, ", ")
}

type formReader struct {
	form url.Values
	bad  []string
}

func newFormReader(form url.Values) *formReader { return &formReader{form: form} }

func (f *formReader) text(name string, required bool) string {
	v := strings.TrimSpace(f.form.Get(name))
	if required && v == "" {
		f.bad = append(f.bad, name)
	}
	return v
}

// amount accepts plain numbers with optional "$", "%" and thousands commas.
func (f *formReader) amount(name string, required bool) float64 {
	raw := f.text(name, required)
	if raw == "" {
		return 0
	}
	clean := strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(raw)
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || v < 0 {
		f.bad = append(f.bad, name)
		return 0
	}
	return v
}

func (f *formReader) err() error {
	if len(f.bad) == 0 {
		return nil
	}
	return &inputError{Fields: f.bad}
}

// ToolFrag runs a tool for an htmx form and always answers 200 with either
// the result or the fallback copy, so the pending control is released.
func ToolFrag(w http.ResponseWriter, r *http.Request) {
	t, ok := toolsByKey[chi.URLParam(r, "tool")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	lang := mw.Lang(r)
	view := toolResultView{Key: t.Key, Lang: lang}
	res, err := t.run(r.Context(), r.PostForm)
	view.Result = res

	var inErr *inputError
	switch {
	case errors.As(err, &inErr):
		view.Invalid = i18nOrDefault(lang, "tool.invalid", "Check the highlighted fields and try again.")
	case err != nil:
		observability.FromContext(r.Context()).Warn("tool call failed",
			zap.String("tool", t.Key),
			zap.String("kind", string(ai.KindOf(err))),
			zap.Error(err),
		)
		view.Fallback = ai.FallbackMessage(err)
		view.Kind = string(ai.KindOf(err))
	}

	payload := map[string]any{"tool:completed": map[string]any{"tool": t.Key, "ok": err == nil}}
	if raw, mErr := json.Marshal(payload); mErr == nil {
		w.Header().Set("HX-Trigger", string(raw))
	}
	renderTemplate(w, r, "frag_tool_result", view)
}

type toolAPIResponse struct {
	Tool string `json:"tool"`
	toolResult
}

// ToolAPIHandler is the JSON mirror of ToolFrag. Model failures use the error
// envelope with the failure kind as the error code.
func ToolAPIHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, ok := toolsByKey[chi.URLParam(r, "tool")]
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "unknown tool", http.StatusNotFound))
		return
	}
	form, err := apiForm(w, r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	res, err := t.run(ctx, form)
	var inErr *inputError
	switch {
	case errors.As(err, &inErr):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_input", inErr.Error(), http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"fields": inErr.Fields}))
		return
	case err != nil:
		kind := ai.KindOf(err)
		observability.FromContext(ctx).Warn("tool call failed",
			zap.String("tool", t.Key),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		e := httpx.NewError(string(kind), ai.FallbackMessage(err), statusForKind(kind))
		if res.Warning != "" {
			e = e.WithDetails(map[string]any{"warning": res.Warning})
		}
		httpx.WriteError(ctx, w, e)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toolAPIResponse{Tool: t.Key, toolResult: res})
}

func statusForKind(k ai.Kind) int {
	if k == ai.KindInvalidCredential {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// apiForm accepts either a flat JSON object or a urlencoded form.
func apiForm(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	form := url.Values{}
	for k, v := range body {
		switch val := v.(type) {
		case nil:
		case string:
			form.Set(k, val)
		case json.Number, bool:
			form.Set(k, fmt.Sprint(val))
		default:
			return nil, fmt.Errorf("field %q must be a string or number", k)
		}
	}
	return form, nil
}
