package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	mw "northgate.capital/web/internal/middleware"
	"northgate.capital/web/internal/observability"
	"northgate.capital/web/internal/testimonials"
)

type testimonialsView struct {
	Lang       string
	CSRFToken  string
	Published  []testimonials.Testimonial
	Pending    []testimonials.Submission
	Form       testimonials.Submission
	Errors     map[string]string
	Submitted  bool
	MaxPending int
	MaxQuote   int
	Ratings    []int
}

func buildTestimonialsView(r *http.Request) testimonialsView {
	return testimonialsView{
		Lang:       mw.Lang(r),
		CSRFToken:  mw.CSRFToken(r),
		Published:  testimonials.Published(),
		Pending:    testimonials.Pending(mw.Store(r)),
		Form:       testimonials.Submission{Rating: 5},
		MaxPending: testimonials.MaxPending,
		MaxQuote:   testimonials.MaxQuoteLength,
		Ratings:    []int{5, 4, 3, 2, 1},
	}
}

// TestimonialsHandler renders the approved quotes, the visitor's pending
// submissions and the submission form.
func TestimonialsHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	vm := newPageData(r, i18nOrDefault(lang, "testimonials.title", "Client testimonials"))
	view := buildTestimonialsView(r)
	view.Submitted = r.URL.Query().Get("submitted") == "1"
	vm.Testimonials = view
	renderPage(w, r, "testimonials", vm)
}

// TestimonialSubmit stores a submission as pending. htmx swaps the form
// section; plain posts redirect back to the page.
func TestimonialSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	rating, _ := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("rating")))
	sub := testimonials.Submission{
		Name:    r.PostForm.Get("name"),
		Company: r.PostForm.Get("company"),
		Quote:   r.PostForm.Get("quote"),
		Rating:  rating,
	}
	saved, err := testimonials.Submit(mw.Store(r), sub)
	if err != nil {
		var verr *testimonials.ValidationError
		if !errors.As(err, &verr) {
			observability.FromContext(r.Context()).Error("store testimonial", zap.Error(err))
			http.Error(w, errorCopy, http.StatusInternalServerError)
			return
		}
		view := buildTestimonialsView(r)
		view.Form = sub
		view.Errors = verr.Fields
		if mw.IsHTMX(r.Context()) {
			renderTemplate(w, r, "frag_testimonial_form", view)
			return
		}
		lang := mw.Lang(r)
		vm := newPageData(r, i18nOrDefault(lang, "testimonials.title", "Client testimonials"))
		vm.Testimonials = view
		renderPageStatus(w, r, "testimonials", vm, http.StatusUnprocessableEntity)
		return
	}
	observability.FromContext(r.Context()).Info("testimonial pending", zap.String("id", saved.ID))

	if !mw.IsHTMX(r.Context()) {
		http.Redirect(w, r, "/testimonials?submitted=1", http.StatusSeeOther)
		return
	}
	view := buildTestimonialsView(r)
	view.Submitted = true
	renderTemplate(w, r, "frag_testimonial_form", view)
}
