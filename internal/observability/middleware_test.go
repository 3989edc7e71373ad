package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecoveryRendersFallbackPage(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	render := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "Something failed. Reload the page.")
	}
	handler := InjectLoggerMiddleware(logger)(
		RequestLoggerMiddleware()(
			RecoveryMiddleware(logger, render)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic("boom")
			})),
		),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/valuation", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Reload the page")
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	require.Equal(t, zapcore.ErrorLevel, completed[0].Level)
	require.EqualValues(t, http.StatusInternalServerError, completed[0].ContextMap()["status"])
}

func TestRecoveryWritesJSONForAPI(t *testing.T) {
	t.Parallel()

	handler := RecoveryMiddleware(zap.NewNop(), func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("page renderer must not run for API paths")
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tools/valuation", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"error":"internal_server_error"`)
}

func TestRequestLoggerLevels(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	handler := InjectLoggerMiddleware(zap.New(core))(
		RequestLoggerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Debug("inside handler")
			w.WriteHeader(http.StatusNotFound)
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("HX-Request", "true")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	inside := logs.FilterMessage("inside handler").All()
	require.Len(t, inside, 1)
	require.Equal(t, "/missing", inside[0].ContextMap()["path"])
	require.Equal(t, true, inside[0].ContextMap()["htmx"])

	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	require.Equal(t, zapcore.WarnLevel, completed[0].Level)
}

func TestClipDropsControlCharacters(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/valuationinjected", SanitizeRoute("/valuation\r\ninjected"))
	require.Equal(t, "/", SanitizeRoute(""))
	require.Equal(t, "héllo", Clip("héllo wörld", 5))
}
