package testimonials

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"northgate.capital/web/internal/session"
)

func TestSubmitAppendsPending(t *testing.T) {
	store := session.NewMemory()

	got, err := Submit(store, Submission{Name: "  Priya Natarajan ", Company: "Kestrel Labs", Quote: "Sharp, fast, honest.", Rating: 5})
	require.NoError(t, err)
	require.NotEmpty(t, got.ID)
	require.False(t, got.SubmittedAt.IsZero())
	require.Equal(t, "Priya Natarajan", got.Name)

	pending := Pending(store)
	require.Len(t, pending, 1)
	require.Equal(t, got.ID, pending[0].ID)
	require.Equal(t, "Kestrel Labs", pending[0].Company)
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		sub    Submission
		fields []string
	}{
		{name: "empty", sub: Submission{}, fields: []string{"name", "quote", "rating"}},
		{name: "rating low", sub: Submission{Name: "A", Quote: "B", Rating: 0}, fields: []string{"rating"}},
		{name: "rating high", sub: Submission{Name: "A", Quote: "B", Rating: 6}, fields: []string{"rating"}},
		{name: "quote too long", sub: Submission{Name: "A", Quote: strings.Repeat("x", MaxQuoteLength+1), Rating: 3}, fields: []string{"quote"}},
		{name: "company too long", sub: Submission{Name: "A", Company: strings.Repeat("c", 121), Quote: "B", Rating: 3}, fields: []string{"company"}},
		{name: "blank after trim", sub: Submission{Name: "   ", Quote: "ok", Rating: 3}, fields: []string{"name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewMemory()
			_, err := Submit(store, tt.sub)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalid))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, len(tt.fields))
			for _, f := range tt.fields {
				require.Contains(t, verr.Fields, f)
			}
			require.Empty(t, Pending(store))
		})
	}
}

func TestSubmitAcceptsQuoteAtLimit(t *testing.T) {
	store := session.NewMemory()
	_, err := Submit(store, Submission{Name: "A", Quote: strings.Repeat("é", MaxQuoteLength), Rating: 1})
	require.NoError(t, err)
}

func TestSubmitDropsOldestPastCap(t *testing.T) {
	store := session.NewMemory()
	var ids []string
	for i := 0; i < MaxPending+2; i++ {
		s, err := Submit(store, Submission{Name: "A", Quote: "Q", Rating: 4})
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	pending := Pending(store)
	require.Len(t, pending, MaxPending)
	require.Equal(t, ids[len(ids)-1], pending[len(pending)-1].ID)
	require.Equal(t, ids[2], pending[0].ID)
}

func TestSubmitKeepsPendingWithinBudget(t *testing.T) {
	tests := []struct {
		name string
		char string
		keep int
	}{
		{name: "ascii", char: "x", keep: 3},
		{name: "markup", char: "<", keep: 3},
		{name: "cjk", char: "資", keep: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewMemory()
			var last Submission
			for i := 0; i < MaxPending; i++ {
				s, err := Submit(store, Submission{
					Name:   "Lin",
					Quote:  strings.Repeat(tt.char, MaxQuoteLength),
					Rating: 5,
				})
				require.NoError(t, err)
				last = s
			}
			raw, ok := store.Get(session.KeyPendingTestimonials)
			require.True(t, ok)
			size, err := storedSize(raw)
			require.NoError(t, err)
			require.LessOrEqual(t, size, PendingBudget)

			pending := Pending(store)
			require.Len(t, pending, tt.keep)
			require.Equal(t, last.ID, pending[len(pending)-1].ID)
		})
	}
}

func TestSubmitRejectsSingleEntryOverBudget(t *testing.T) {
	store := session.NewMemory()
	_, err := Submit(store, Submission{Name: "A", Quote: "Q", Rating: 3})
	require.NoError(t, err)

	// control characters expand to \u00XX escapes twice over
	_, err = Submit(store, Submission{Name: "A", Quote: "a" + strings.Repeat("\x01", MaxQuoteLength-2) + "b", Rating: 3})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "quote")
	require.Len(t, Pending(store), 1, "a rejected submission leaves the list untouched")
}

func TestPendingIgnoresCorruptState(t *testing.T) {
	store := session.NewMemory()
	store.Set(session.KeyPendingTestimonials, "{not json")
	require.Nil(t, Pending(store))

	_, err := Submit(store, Submission{Name: "A", Quote: "Q", Rating: 2})
	require.NoError(t, err)
	require.Len(t, Pending(store), 1)
}

func TestPublishedIsACopy(t *testing.T) {
	a := Published()
	require.NotEmpty(t, a)
	a[0].Name = "changed"
	require.NotEqual(t, "changed", Published()[0].Name)
}
