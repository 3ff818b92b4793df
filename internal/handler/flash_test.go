package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqimple/reqimple/internal/view"
)

func TestFlash_RoundTrip(t *testing.T) {
	set := httptest.NewRecorder()
	setFlash(set, false, view.Flash{Kind: view.FlashSuccess, Message: "Idea created!\nwith a newline"})
	cookies := set.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	pop := httptest.NewRecorder()

	got := popFlash(pop, req, false)

	require.NotNil(t, got)
	assert.Equal(t, view.FlashSuccess, got.Kind)
	assert.Equal(t, "Idea created!\nwith a newline", got.Message)
	cleared := pop.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestFlash_RejectsForgedValues(t *testing.T) {
	for _, value := range []string{"%%%", "bm9uZXdsaW5l", "ZXZpbAptc2c"} { // garbage, "nonewline", "evil\nmsg"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: flashCookie, Value: value})

		assert.Nil(t, popFlash(httptest.NewRecorder(), req, false), value)
	}
}

func TestSafeNext(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "/"},
		{"/ideas/1", "/ideas/1"},
		{"//evil.example", "/"},
		{"/\\evil.example", "/"},
		{"https://evil.example", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeNext(tt.in), tt.in)
	}
}
