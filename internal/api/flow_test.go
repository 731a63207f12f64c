package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1mb-dev/tunebox/internal/engagement"
	"github.com/1mb-dev/tunebox/internal/testutil"
)

func TestListenerFlow(t *testing.T) {
	app := setupApp(t, 0)
	srv := httptest.NewServer(app.handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	send := func(method, path string, form url.Values) *http.Response {
		t.Helper()
		var resp *http.Response
		var err error
		if form != nil {
			resp, err = client.PostForm(srv.URL+path, form)
		} else {
			req, rerr := http.NewRequest(method, srv.URL+path, nil)
			require.NoError(t, rerr)
			resp, err = client.Do(req)
		}
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	creds := url.Values{"username": {"carol"}, "password": {"s3cret"}}

	resp := send(http.MethodPost, "/register", creds)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = send(http.MethodPost, "/login", creds)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	carol, err := app.repo.GetUserByUsername(context.Background(), "carol")
	require.NoError(t, err)
	require.NotNil(t, carol)

	// Like, then unlike
	var state engagement.LikeState
	resp = send(http.MethodPost, "/like/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, engagement.LikeState{Liked: true, Count: 1}, state)

	resp = send(http.MethodPost, "/like/1", nil)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, engagement.LikeState{Liked: false, Count: 0}, state)

	// Each song-data fetch is one play
	send(http.MethodGet, "/song-data/2", nil)
	send(http.MethodGet, "/song-data/2", nil)
	assert.Equal(t, 2, testutil.Plays(t, app.path, carol.ID, 2))

	resp = send(http.MethodGet, "/library", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Sunrise")

	resp = send(http.MethodGet, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = send(http.MethodGet, "/library", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = send(http.MethodPost, "/like/1", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
