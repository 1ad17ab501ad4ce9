package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, nil)
	rec := serve(t, app.Routes(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestContactRejectsIncompleteSubmissions(t *testing.T) {
	notifier := &recordingNotifier{}
	app, _ := newTestApp(t, notifier)
	h := app.Routes()

	for name, body := range map[string]string{
		"missing message": `{"name":"A","email":"a@b.com"}`,
		"blank name":      `{"name":"   ","email":"a@b.com","message":"hi"}`,
		"empty body":      ``,
		"not json":        `name=A`,
		"wrong types":     `{"name":1,"email":"a@b.com","message":"hi"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(t, h, http.MethodPost, "/api/contact", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"message":"Name, email, and message are required."}`, rec.Body.String())
		})
	}

	n, err := app.repo.Count(context.Background(), mustTable(t, "messages"))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, notifier.calls())
}

func TestContactSavedAndSent(t *testing.T) {
	notifier := &recordingNotifier{}
	app, _ := newTestApp(t, notifier)

	rec := serve(t, app.Routes(), http.MethodPost, "/api/contact", `{"name":" A ","email":"a@b.com","message":"hi"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Saved and sent"}`, rec.Body.String())

	rows, err := app.repo.List(context.Background(), mustTable(t, "messages"), newestFirst)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0]["name"])
	assert.Equal(t, "hi", rows[0]["message"])
	assert.Equal(t, []Contact{{Name: "A", Email: "a@b.com", Message: "hi"}}, notifier.calls())
}

func TestContactSavedWhenMailFails(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp: connection refused")}
	app, _ := newTestApp(t, notifier)

	rec := serve(t, app.Routes(), http.MethodPost, "/api/contact", `{"name":"A","email":"a@b.com","message":"hi"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	var got map[string]string
	decodeBody(t, rec, &got)
	assert.Equal(t, "Saved, email not sent", got["message"])
	assert.Equal(t, "smtp: connection refused", got["email_error"])

	n, err := app.repo.Count(context.Background(), mustTable(t, "messages"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestContactWithoutMailConfig(t *testing.T) {
	app, _ := newTestApp(t, NewSMTPNotifier(MailConfig{Port: 587, UseTLS: true}))

	rec := serve(t, app.Routes(), http.MethodPost, "/api/contact", `{"name":"A","email":"a@b.com","message":"hi"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	var got map[string]string
	decodeBody(t, rec, &got)
	assert.Equal(t, ErrMailNotConfigured.Error(), got["email_error"])
}

func TestPublicListsFollowDeclaredOrder(t *testing.T) {
	app, _ := newTestApp(t, nil)
	ctx := context.Background()
	edu := mustTable(t, "education")
	_, err := app.repo.Insert(ctx, edu, Fields{"institution": "second", "degree": "d", "order_index": 2, "start_year": 2021})
	require.NoError(t, err)
	_, err = app.repo.Insert(ctx, edu, Fields{"institution": "first", "degree": "d", "order_index": 1, "start_year": 2020})
	require.NoError(t, err)

	rec := serve(t, app.Routes(), http.MethodGet, "/api/education", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	decodeBody(t, rec, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "first", rows[0]["institution"])
	assert.Equal(t, "second", rows[1]["institution"])
	assert.EqualValues(t, 2020, rows[0]["start_year"])
	assert.Nil(t, rows[0]["end_year"])
	assert.Contains(t, rows[0], "id")
}

func TestPublicListsEmbedArrays(t *testing.T) {
	app, _ := newTestApp(t, nil)
	ctx := context.Background()
	_, err := app.repo.Insert(ctx, mustTable(t, "projects"), Fields{"title": "Site", "tags": toJSONMust(t, []string{"Go", "React"})})
	require.NoError(t, err)
	_, err = app.repo.Insert(ctx, mustTable(t, "skills"), Fields{"category": "Tools", "items": toJSONMust(t, []SkillItem{{Name: "Git", Icon: "SiGit"}})})
	require.NoError(t, err)

	rec := serve(t, app.Routes(), http.MethodGet, "/api/projects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []struct {
		Tags []string `json:"tags"`
	}
	decodeBody(t, rec, &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, []string{"Go", "React"}, projects[0].Tags)

	rec = serve(t, app.Routes(), http.MethodGet, "/api/skills", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var skills []struct {
		Items []SkillItem `json:"items"`
	}
	decodeBody(t, rec, &skills)
	require.Len(t, skills, 1)
	assert.Equal(t, []SkillItem{{Name: "Git", Icon: "SiGit"}}, skills[0].Items)
}

func TestPublicListsEmpty(t *testing.T) {
	app, _ := newTestApp(t, nil)
	for _, ep := range publicEndpoints {
		rec := serve(t, app.Routes(), http.MethodGet, ep.Path, "")
		assert.Equal(t, http.StatusOK, rec.Code, ep.Path)
		assert.JSONEq(t, `[]`, rec.Body.String(), ep.Path)
	}
}

func TestSocialEndpointServesSocialLinks(t *testing.T) {
	app, _ := newTestApp(t, nil)
	_, err := app.repo.Insert(context.Background(), mustTable(t, "social_links"), Fields{"label": "GitHub", "url": "https://github.com/x", "icon": "github"})
	require.NoError(t, err)

	rec := serve(t, app.Routes(), http.MethodGet, "/api/social", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	decodeBody(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://github.com/x", rows[0]["url"])
}

func TestProfile(t *testing.T) {
	app, _ := newTestApp(t, nil)

	rec := serve(t, app.Routes(), http.MethodGet, "/api/profile", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	_, err := app.repo.Insert(context.Background(), mustTable(t, "profile"), Fields{"content": "# Me"})
	require.NoError(t, err)

	rec = serve(t, app.Routes(), http.MethodGet, "/api/profile", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]interface{}
	decodeBody(t, rec, &got)
	assert.Equal(t, "# Me", got["content"])
	assert.NotNil(t, got["id"])
}

func TestUsersAreNotPublic(t *testing.T) {
	app, _ := newTestApp(t, nil)
	for _, path := range []string{"/api/users", "/api/messages"} {
		rec := serve(t, app.Routes(), http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestCORSPreflight(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	cfg.FrontendURLs = []string{"https://portfolio.example"}
	app, err := NewApp(cfg, db, &recordingNotifier{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Origin", "https://portfolio.example")
	rec := httptest.NewRecorder()
	app.Routes().ServeHTTP(rec, req)
	assert.Equal(t, "https://portfolio.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	app.Routes().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func toJSONMust(t *testing.T, v interface{}) interface{} {
	t.Helper()
	j, err := toJSON(v)
	require.NoError(t, err)
	return j
}
