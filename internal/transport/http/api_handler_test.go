package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"wordsprint/internal/app"
	"wordsprint/internal/domain"
	"wordsprint/internal/infra/memory"
)

var testWords = []domain.WordEntry{
	{Prompt: "りんご", Answer: "apple"},
	{Prompt: "ねこ", Answer: "cat"},
	{Prompt: "いぬ", Answer: "dog"},
	{Prompt: "みず", Answer: "water"},
}

func answerFor(prompt string) string {
	for _, w := range testWords {
		if w.Prompt == prompt {
			return w.Answer
		}
	}
	return ""
}

type sessionView struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Prompt string `json:"prompt"`
	Score  int    `json:"score"`
	Total  int    `json:"total"`
}

type fakeSpeaker struct{}

func (fakeSpeaker) Speech(_ context.Context, text string) ([]byte, error) {
	return []byte("mp3:" + text), nil
}

func newTestService(opts app.LeaderboardOptions) *app.GameService {
	words := memory.NewWordRepository(memory.NewStaticWordLoader(testWords), time.Minute)
	board := app.NewLeaderboard(memory.NewLeaderboardStore(), opts)
	return app.NewGameService(memory.NewSessionStore(), words, board, app.WithMissTracker(memory.NewMissTracker()))
}

func newTestServer(t *testing.T, service *app.GameService, opts Options) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewRouter(service, opts))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t, newTestService(app.LeaderboardOptions{}), Options{})

	var snap sessionView
	if code := doJSON(t, http.MethodPost, server.URL+"/api/sessions", "", map[string]interface{}{"count": 2, "mode": "text"}, &snap); code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", code)
	}
	if snap.State != "question_active" || snap.Total != 2 {
		t.Fatalf("unexpected session %+v", snap)
	}
	base := server.URL + "/api/sessions/" + snap.ID

	var answered struct {
		Result  domain.AnswerResult `json:"result"`
		Session sessionView         `json:"session"`
	}
	if code := doJSON(t, http.MethodPost, base+"/answer", "", map[string]string{"answer": answerFor(snap.Prompt)}, &answered); code != http.StatusOK {
		t.Fatalf("answer: expected 200, got %d", code)
	}
	if !answered.Result.Correct || answered.Session.State != "answer_revealed" {
		t.Fatalf("unexpected answer %+v", answered)
	}
	if code := doJSON(t, http.MethodPost, base+"/next", "", nil, &snap); code != http.StatusOK {
		t.Fatalf("next: expected 200, got %d", code)
	}
	if code := doJSON(t, http.MethodPost, base+"/answer", "", map[string]string{"answer": "wrong"}, &answered); code != http.StatusOK {
		t.Fatalf("answer: expected 200, got %d", code)
	}
	if code := doJSON(t, http.MethodPost, base+"/next", "", nil, &snap); code != http.StatusOK {
		t.Fatalf("next: expected 200, got %d", code)
	}
	if snap.State != "finished" || snap.Score != 10 {
		t.Fatalf("expected finished with 10 points, got %+v", snap)
	}

	var submitted struct {
		Result   string `json:"result"`
		Rank     *int   `json:"rank"`
		Unranked bool   `json:"unranked"`
	}
	if code := doJSON(t, http.MethodPost, base+"/submit", "", map[string]string{"name": "Alice"}, &submitted); code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d", code)
	}
	if submitted.Result != "ok" || submitted.Rank == nil || *submitted.Rank != 1 {
		t.Fatalf("unexpected submit response %+v", submitted)
	}

	var ranking []struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
		Mode  string `json:"mode"`
	}
	if code := doJSON(t, http.MethodGet, server.URL+"/api/ranking", "", nil, &ranking); code != http.StatusOK {
		t.Fatalf("ranking: expected 200, got %d", code)
	}
	if len(ranking) != 1 || ranking[0].Name != "Alice" || ranking[0].Score != 10 || ranking[0].Mode != "text" {
		t.Fatalf("unexpected ranking %+v", ranking)
	}

	var misses []domain.MissCount
	doJSON(t, http.MethodGet, server.URL+"/api/misses", "", nil, &misses)
	if len(misses) != 1 || misses[0].Misses != 1 {
		t.Fatalf("expected the wrong answer to count as a miss, got %+v", misses)
	}

	if code := doJSON(t, http.MethodDelete, base, "", nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", code)
	}
	if code := doJSON(t, http.MethodGet, base, "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
}

func TestSubmitEndpoint(t *testing.T) {
	server := newTestServer(t, newTestService(app.LeaderboardOptions{}), Options{})
	url := server.URL + "/api/submit"

	cases := []struct {
		name   string
		body   string
		code   int
		result string
	}{
		{"first", `{"name":"Alice","score":80,"time":30}`, http.StatusOK, "ok"},
		{"same run", `{"name":"Alice","score":80,"time":30}`, http.StatusOK, "not_better"},
		{"faster", `{"name":"Alice","score":80,"time":20,"mode":"choice"}`, http.StatusOK, "updated"},
		{"fractional score", `{"name":"Bob","score":1.5,"time":3}`, http.StatusBadRequest, ""},
		{"missing name", `{"score":10,"time":3}`, http.StatusBadRequest, ""},
		{"negative time", `{"name":"Bob","score":10,"time":-1}`, http.StatusBadRequest, ""},
		{"partial score", `{"name":"Bob","score":15,"time":3}`, http.StatusBadRequest, ""},
		{"score past bound", `{"name":"Bob","score":1000000000000,"time":5}`, http.StatusBadRequest, ""},
		{"unknown mode", `{"name":"Bob","score":10,"time":1,"mode":"oral"}`, http.StatusBadRequest, ""},
		{"bad json", `{"name":`, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(url, "application/json", bytes.NewBufferString(tc.body))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, resp.StatusCode)
			}
			if tc.result == "" {
				return
			}
			var out struct {
				Result string `json:"result"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Result != tc.result {
				t.Fatalf("expected %s, got %s", tc.result, out.Result)
			}
		})
	}
}

func TestRankEndpoint(t *testing.T) {
	service := newTestService(app.LeaderboardOptions{RankedLimit: 1})
	server := newTestServer(t, service, Options{})
	if _, err := service.Leaderboard().Submit(context.Background(), "Alice", 50, 10, domain.ModeFreeText); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var out struct {
		Rank     *int `json:"rank"`
		Unranked bool `json:"unranked"`
	}
	doJSON(t, http.MethodGet, server.URL+"/api/rank?score=60&time=10", "", nil, &out)
	if out.Rank == nil || *out.Rank != 1 || out.Unranked {
		t.Fatalf("expected rank 1, got %+v", out)
	}

	out.Rank = nil
	doJSON(t, http.MethodGet, server.URL+"/api/rank?score=10&time=5", "", nil, &out)
	if out.Rank != nil || !out.Unranked {
		t.Fatalf("expected unranked, got %+v", out)
	}

	if code := doJSON(t, http.MethodGet, server.URL+"/api/rank?score=ten&time=5", "", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad score, got %d", code)
	}
}

func TestErrorMapping(t *testing.T) {
	server := newTestServer(t, newTestService(app.LeaderboardOptions{}), Options{})

	var snap sessionView
	doJSON(t, http.MethodPost, server.URL+"/api/sessions", "", map[string]interface{}{"count": "all"}, &snap)
	if snap.Total != len(testWords) {
		t.Fatalf(`expected "all" to use the whole pool, got %d`, snap.Total)
	}
	base := server.URL + "/api/sessions/" + snap.ID

	cases := []struct {
		name   string
		method string
		url    string
		body   interface{}
		code   int
	}{
		{"unknown session", http.MethodGet, server.URL + "/api/sessions/missing", nil, http.StatusNotFound},
		{"next before answer", http.MethodPost, base + "/next", nil, http.StatusConflict},
		{"submit before finish", http.MethodPost, base + "/submit", map[string]string{"name": "A"}, http.StatusConflict},
		{"count exceeds pool", http.MethodPost, server.URL + "/api/sessions", map[string]interface{}{"count": 99}, http.StatusUnprocessableEntity},
		{"zero count", http.MethodPost, server.URL + "/api/sessions", map[string]interface{}{"count": 0}, http.StatusBadRequest},
		{"audio disabled", http.MethodGet, base + "/audio", nil, http.StatusServiceUnavailable},
		{"admin disabled", http.MethodPost, server.URL + "/api/admin/login", map[string]string{"pass": "x"}, http.StatusNotFound},
		{"empty miss", http.MethodPost, server.URL + "/api/miss", map[string]string{"word": " "}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := doJSON(t, tc.method, tc.url, "", tc.body, nil); code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, code)
			}
		})
	}
}

func TestAudioOnlyAfterReveal(t *testing.T) {
	server := newTestServer(t, newTestService(app.LeaderboardOptions{}), Options{Audio: fakeSpeaker{}})

	var snap sessionView
	doJSON(t, http.MethodPost, server.URL+"/api/sessions", "", map[string]interface{}{"count": 1}, &snap)
	base := server.URL + "/api/sessions/" + snap.ID

	if code := doJSON(t, http.MethodGet, base+"/audio", "", nil, nil); code != http.StatusConflict {
		t.Fatalf("audio must not leak the pending answer, got %d", code)
	}
	doJSON(t, http.MethodPost, base+"/answer", "", map[string]string{"answer": "nope"}, nil)

	resp, err := http.Get(base + "/audio")
	if err != nil {
		t.Fatalf("get audio: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "audio/mpeg" {
		t.Fatalf("unexpected audio response %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if string(body) != "mp3:"+answerFor(snap.Prompt) {
		t.Fatalf("unexpected audio body %q", body)
	}
}

func TestAdminReset(t *testing.T) {
	auth, err := NewAdminAuth("secret-pass", "", "", time.Minute)
	if err != nil {
		t.Fatalf("admin auth: %v", err)
	}
	service := newTestService(app.LeaderboardOptions{})
	server := newTestServer(t, service, Options{Admin: auth})
	ctx := context.Background()
	_, _ = service.Leaderboard().Submit(ctx, "Alice", 10, 10, domain.ModeFreeText)

	if code := doJSON(t, http.MethodPost, server.URL+"/api/admin/login", "", map[string]string{"pass": "wrong"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", code)
	}
	if code := doJSON(t, http.MethodPost, server.URL+"/api/admin/reset", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code := doJSON(t, http.MethodPost, server.URL+"/api/admin/reset", "garbage", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", code)
	}

	var login struct {
		Token string `json:"token"`
	}
	if code := doJSON(t, http.MethodPost, server.URL+"/api/admin/login", "", map[string]string{"pass": "secret-pass"}, &login); code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", code)
	}
	if code := doJSON(t, http.MethodPost, server.URL+"/api/admin/reset", login.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", code)
	}
	all, _ := service.Leaderboard().All(ctx, domain.ModeAny)
	if len(all) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", all)
	}
}

func TestAdminReloadWords(t *testing.T) {
	auth, err := NewAdminAuth("secret-pass", "", "", time.Minute)
	if err != nil {
		t.Fatalf("admin auth: %v", err)
	}
	loader := &switchingLoader{words: testWords[:2]}
	words := memory.NewWordRepository(loader, time.Hour)
	board := app.NewLeaderboard(memory.NewLeaderboardStore(), app.LeaderboardOptions{})
	service := app.NewGameService(memory.NewSessionStore(), words, board)
	server := newTestServer(t, service, Options{Admin: auth})

	var before []domain.WordEntry
	doJSON(t, http.MethodGet, server.URL+"/api/words", "", nil, &before)
	if len(before) != 2 {
		t.Fatalf("expected 2 words, got %d", len(before))
	}
	loader.set(testWords)

	if code := doJSON(t, http.MethodPost, server.URL+"/api/admin/reload-words", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	var login struct {
		Token string `json:"token"`
	}
	doJSON(t, http.MethodPost, server.URL+"/api/admin/login", "", map[string]string{"pass": "secret-pass"}, &login)
	var out struct {
		Words int `json:"words"`
	}
	if code := doJSON(t, http.MethodPost, server.URL+"/api/admin/reload-words", login.Token, nil, &out); code != http.StatusOK {
		t.Fatalf("reload: expected 200, got %d", code)
	}
	if out.Words != len(testWords) {
		t.Fatalf("expected %d words after reload, got %d", len(testWords), out.Words)
	}
}

type switchingLoader struct {
	mu    sync.Mutex
	words []domain.WordEntry
}

func (l *switchingLoader) set(words []domain.WordEntry) {
	l.mu.Lock()
	l.words = words
	l.mu.Unlock()
}

func (l *switchingLoader) LoadWords(context.Context) ([]domain.WordEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.words, nil
}

func TestAdminTokenExpires(t *testing.T) {
	auth, err := NewAdminAuth("", "", "key", time.Minute)
	if err != nil || auth != nil {
		t.Fatalf("expected admin disabled without a password, got %v %v", auth, err)
	}
	auth, err = NewAdminAuth("pw", "", "key", time.Minute)
	if err != nil {
		t.Fatalf("admin auth: %v", err)
	}
	now := time.Now()
	auth.now = func() time.Time { return now }
	token, _, err := auth.Login("pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := auth.Login("nope"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	check := func() int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/admin/reset", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := check(); code != http.StatusOK {
		t.Fatalf("expected fresh token to pass, got %d", code)
	}
	now = now.Add(2 * time.Minute)
	if code := check(); code != http.StatusUnauthorized {
		t.Fatalf("expected expired token to fail, got %d", code)
	}
}
