package main

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"northgate.capital/web/internal/auth"
	mw "northgate.capital/web/internal/middleware"
	"northgate.capital/web/internal/observability"
)

type loginView struct {
	Email string
	Next  string
	Error string
}

// LoginPage renders the mock sign-in form.
func LoginPage(w http.ResponseWriter, r *http.Request) {
	if u := mw.UserFromContext(r.Context()); u != nil {
		http.Redirect(w, r, auth.PortalPath(auth.Role(u.Role)), http.StatusSeeOther)
		return
	}
	lang := mw.Lang(r)
	vm := newPageData(r, i18nOrDefault(lang, "login.title", "Client sign in"))
	vm.SEO.Robots = "noindex"
	vm.Login = loginView{Next: localPath(r.URL.Query().Get("next"), "")}
	renderPage(w, r, "login", vm)
}

// LoginSubmit checks the demo credentials and stores the mock token and role.
func LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	next := localPath(r.PostForm.Get("next"), "")

	id, err := auth.Login(mw.Store(r), email, r.PostForm.Get("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			observability.FromContext(r.Context()).Error("login failed", zap.Error(err))
		}
		lang := mw.Lang(r)
		vm := newPageData(r, i18nOrDefault(lang, "login.title", "Client sign in"))
		vm.SEO.Robots = "noindex"
		vm.Login = loginView{
			Email: email,
			Next:  next,
			Error: i18nOrDefault(lang, "login.invalid", "Those credentials were not recognised."),
		}
		renderPageStatus(w, r, "login", vm, http.StatusUnauthorized)
		return
	}
	mw.GetSession(r).RegenerateID()

	target := auth.PortalPath(id.Role)
	if next != "" && (!strings.HasPrefix(next, "/portal/") || next == target) {
		target = next
	}
	if mw.IsHTMX(r.Context()) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// LogoutHandler clears the auth keys and leaves the rest of the store alone.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	auth.Logout(mw.Store(r))
	if mw.IsHTMX(r.Context()) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type portalView struct {
	Role     string
	Heading  string
	Intro    string
	Metrics  []portalMetric
	Items    []portalItem
	ItemHead string
}

type portalMetric struct {
	Label string
	Value string
}

type portalItem struct {
	Name   string
	Detail string
	Status string
}

// PortalHandler renders the dashboard for role. The route is guarded by
// RequireRole, so the visitor always holds that role here.
func PortalHandler(role auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := mw.Lang(r)
		view := portalFor(role)
		vm := newPageData(r, i18nOrDefault(lang, "portal."+string(role)+".title", view.Heading))
		vm.SEO.Robots = "noindex"
		vm.Portal = view
		renderPage(w, r, "portal", vm)
	}
}

func portalFor(role auth.Role) portalView {
	if role == auth.RoleInvestor {
		return portalView{
			Role:    string(role),
			Heading: "Investor deal room",
			Intro:   "Live mandates open to your allocation profile.",
			Metrics: []portalMetric{
				{Label: "Open mandates", Value: "6"},
				{Label: "Committed this year", Value: "$18.5M"},
				{Label: "Average check", Value: "$1.2M"},
			},
			ItemHead: "Deal flow",
			Items: []portalItem{
				{Name: "Helios Storage Series B", Detail: "Grid-scale battery developer, $40M round", Status: "Data room open"},
				{Name: "Harbor Row Multifamily", Detail: "212 units, Tacoma WA, 65% LTV senior", Status: "Term sheet"},
				{Name: "Fieldline Robotics", Detail: "Agricultural automation, $12M growth equity", Status: "First look"},
			},
		}
	}
	return portalView{
		Role:    string(role),
		Heading: "Client mandate overview",
		Intro:   "Status of every workstream Northgate is running for you.",
		Metrics: []portalMetric{
			{Label: "Active workstreams", Value: "3"},
			{Label: "Investor meetings booked", Value: "14"},
			{Label: "Target close", Value: "Q2"},
		},
		ItemHead: "Workstreams",
		Items: []portalItem{
			{Name: "Series A raise", Detail: "Outreach to 48 qualified funds", Status: "In market"},
			{Name: "Financial model review", Detail: "Three-statement model and sensitivities", Status: "Complete"},
			{Name: "Data room build", Detail: "Legal, commercial and technical folders", Status: "In progress"},
		},
	}
}
