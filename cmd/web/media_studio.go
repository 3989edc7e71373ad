package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"northgate.capital/web/internal/ai"
	mw "northgate.capital/web/internal/middleware"
	"northgate.capital/web/internal/observability"
)

// cancelSettle bounds how long the cancel handler waits for the watch to
// record its final state.
const cancelSettle = 2 * time.Second

type mediaStudioView struct {
	Lang          string
	CSRFToken     string
	HasCredential bool
	Aspects       []string
}

type videoStatusView struct {
	ID        string
	Lang      string
	CSRFToken string
	Status    string
	Running   bool
	VideoURI  string
	Fallback  string
	Invalid   string
	Polls     int
	Elapsed   string
}

// MediaStudioHandler renders the video brief form.
func MediaStudioHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	vm := newPageData(r, i18nOrDefault(lang, "media.title", "Media studio"))
	vm.MediaStudio = mediaStudioView{
		Lang:          lang,
		CSRFToken:     vm.CSRFToken,
		HasCredential: aiClient.HasCredential(),
		Aspects:       []string{"16:9", "9:16"},
	}
	renderPage(w, r, "media_studio", vm)
}

// VideoStartFrag starts a watch. A key typed into the form is used for this
// job only and is never stored.
func VideoStartFrag(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := newFormReader(r.PostForm)
	in := ai.VideoInput{
		Prompt:      form.text("prompt", true),
		AspectRatio: r.PostForm.Get("aspect_ratio"),
		Credential:  r.PostForm.Get("api_key"),
	}
	if form.err() != nil {
		lang := mw.Lang(r)
		renderTemplate(w, r, "frag_video_status", videoStatusView{
			Lang:    lang,
			Status:  "invalid",
			Invalid: i18nOrDefault(lang, "media.prompt_required", "Describe the video you want before generating it."),
		})
		return
	}
	watch, err := aiClient.StartVideo(r.Context(), in)
	if err != nil {
		observability.FromContext(r.Context()).Warn("video start failed",
			zap.String("kind", string(ai.KindOf(err))),
			zap.Error(err),
		)
		renderTemplate(w, r, "frag_video_status", videoStatusView{
			Lang:     mw.Lang(r),
			Status:   string(ai.StatusFailed),
			Fallback: ai.FallbackMessage(err),
		})
		return
	}
	videoJobs.Add(watch)
	renderTemplate(w, r, "frag_video_status", videoStatusFor(r, watch))
}

// VideoStatusFrag reports the state of a watch. The fragment keeps polling
// only while the watch is running.
func VideoStatusFrag(w http.ResponseWriter, r *http.Request) {
	watch, err := videoJobs.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		videoNotFound(w, r, err)
		return
	}
	view := videoStatusFor(r, watch)
	if !view.Running {
		// htmx stops an `every` trigger on 286
		renderTemplateStatus(w, r, "frag_video_status", view, 286)
		return
	}
	renderTemplate(w, r, "frag_video_status", view)
}

// VideoCancelFrag cancels a watch and reports its final state.
func VideoCancelFrag(w http.ResponseWriter, r *http.Request) {
	watch, err := videoJobs.Cancel(chi.URLParam(r, "jobID"))
	if err != nil {
		videoNotFound(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), cancelSettle)
	defer cancel()
	_, _ = watch.Wait(ctx)
	renderTemplate(w, r, "frag_video_status", videoStatusFor(r, watch))
}

func videoNotFound(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ai.ErrNotFound) {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func videoStatusFor(r *http.Request, watch *ai.Watch) videoStatusView {
	st := watch.State()
	end := st.FinishedAt
	if end.IsZero() {
		end = time.Now().UTC()
	}
	v := videoStatusView{
		ID:        watch.ID,
		Lang:      mw.Lang(r),
		CSRFToken: mw.CSRFToken(r),
		Status:    string(st.Status),
		Running:   !st.Terminal(),
		VideoURI:  st.VideoURI,
		Polls:     st.Polls,
		Elapsed:   end.Sub(st.StartedAt).Round(time.Second).String(),
	}
	if st.Status == ai.StatusFailed {
		v.Fallback = ai.FallbackMessage(st.Err)
	}
	return v
}
