package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"wordsprint/internal/app"
	"wordsprint/internal/domain"
)

// maxListSize caps n on list endpoints.
const maxListSize = 100

// Speaker renders an answer as MP3 audio.
type Speaker interface {
	Speech(ctx context.Context, text string) ([]byte, error)
}

// APIHandler serves the REST endpoints.
type APIHandler struct {
	service *app.GameService
	admin   *AdminAuth
	audio   Speaker
}

func NewAPIHandler(service *app.GameService, admin *AdminAuth, audio Speaker) *APIHandler {
	return &APIHandler{service: service, admin: admin, audio: audio}
}

type submitRequest struct {
	Name  string      `json:"name"`
	Score json.Number `json:"score"`
	Time  json.Number `json:"time"`
	Mode  string      `json:"mode"`
}

type rankResponse struct {
	Rank     *int `json:"rank"`
	Unranked bool `json:"unranked,omitempty"`
}

type submitResponse struct {
	Result domain.SubmitResult `json:"result"`
	rankResponse
}

type createSessionRequest struct {
	Count json.RawMessage `json:"count"`
	Mode  string          `json:"mode"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type playerRequest struct {
	Name string `json:"name"`
}

type missRequest struct {
	Word string `json:"word"`
}

type loginRequest struct {
	Pass string `json:"pass"`
}

func (h *APIHandler) Words(w http.ResponseWriter, r *http.Request) {
	words, err := h.service.Words(r.Context())
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, words)
}

// Submit records a result played on the client.
func (h *APIHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithErr(w, r, err)
		return
	}
	score, err := integral("score", req.Score)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	elapsed, err := integral("time", req.Time)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	mode, err := domain.ParseMode(req.Mode, domain.ModeFreeText)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}

	board := h.service.Leaderboard()
	result, err := board.Submit(r.Context(), req.Name, score, elapsed, mode)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	rank, err := board.RankOf(r.Context(), score, elapsed, mode)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, submitResponse{Result: result, rankResponse: toRankResponse(rank)})
}

func (h *APIHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", 0)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	if n > maxListSize {
		n = maxListSize
	}
	mode, err := domain.ParseMode(r.URL.Query().Get("mode"), domain.ModeAny)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	records, err := h.service.Leaderboard().Top(r.Context(), n, mode)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

// Rank reports the position a result would take without storing it.
func (h *APIHandler) Rank(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("score") == "" || q.Get("time") == "" {
		respondWithErr(w, r, &domain.ValidationError{Field: "query", Reason: "score and time are required"})
		return
	}
	score, err := queryInt(r, "score", 0)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	elapsed, err := queryInt(r, "time", 0)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	mode, err := domain.ParseMode(q.Get("mode"), domain.ModeAny)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	rank, err := h.service.Leaderboard().RankOf(r.Context(), score, elapsed, mode)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toRankResponse(rank))
}

func (h *APIHandler) RecordMiss(w http.ResponseWriter, r *http.Request) {
	var req missRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithErr(w, r, err)
		return
	}
	if err := h.service.RecordMiss(r.Context(), strings.TrimSpace(req.Word)); err != nil {
		respondWithErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) Misses(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", 10)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	if n <= 0 || n > maxListSize {
		n = maxListSize
	}
	misses, err := h.service.TopMisses(r.Context(), n)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, misses)
}

// CreateSession starts a server-side session. count is a number or "all".
func (h *APIHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithErr(w, r, err)
		return
	}
	count, err := parseCount(req.Count)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	mode, err := domain.ParseMode(req.Mode, domain.ModeFreeText)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	snap, err := h.service.Start(r.Context(), count, mode)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, snap)
}

func (h *APIHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

func (h *APIHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithErr(w, r, err)
		return
	}
	result, snap, err := h.service.Answer(r.Context(), mux.Vars(r)["id"], req.Answer)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"result": result, "session": snap})
}

func (h *APIHandler) Next(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Next(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

// SubmitSession hands a finished session to the leaderboard.
func (h *APIHandler) SubmitSession(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithErr(w, r, err)
		return
	}
	result, rank, err := h.service.SubmitScore(r.Context(), mux.Vars(r)["id"], req.Name)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, submitResponse{Result: result, rankResponse: toRankResponse(rank)})
}

func (h *APIHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.service.Abandon(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// Audio streams the pronunciation of the revealed answer.
func (h *APIHandler) Audio(w http.ResponseWriter, r *http.Request) {
	if h.audio == nil {
		respondWithErr(w, r, domain.ErrAudioUnavailable)
		return
	}
	text, err := h.service.PronunciationText(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	data, err := h.audio.Speech(r.Context(), text)
	if err != nil {
		respondWithErr(w, r, domain.StorageError("synthesize speech", err))
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithErr(w, r, err)
		return
	}
	token, expires, err := h.admin.Login(req.Pass)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"token": token, "expiresAt": expires})
}

func (h *APIHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Leaderboard().Reset(r.Context()); err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "leaderboard cleared"})
}

// ReloadWords refreshes the word pool without a restart.
func (h *APIHandler) ReloadWords(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ReloadWords(r.Context())
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"words": n})
}

func toRankResponse(rank domain.Rank) rankResponse {
	if !rank.Ranked {
		return rankResponse{Unranked: true}
	}
	pos := rank.Position
	return rankResponse{Rank: &pos}
}

func integral(field string, n json.Number) (int, error) {
	if n == "" {
		return 0, &domain.ValidationError{Field: field, Reason: "required"}
	}
	v, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, &domain.ValidationError{Field: field, Reason: "must be a whole number"}
	}
	return v, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Reason: "must be a whole number"}
	}
	return v, nil
}

func parseCount(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return app.AllQuestions, nil
	}
	var n json.Number
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if strings.EqualFold(s, "all") {
			return app.AllQuestions, nil
		}
		n = json.Number(s)
	} else if err := json.Unmarshal(raw, &n); err != nil {
		return 0, &domain.ValidationError{Field: "count", Reason: `must be a number or "all"`}
	}
	count, err := integral("count", n)
	if err != nil {
		return 0, err
	}
	if count <= 0 {
		return 0, &domain.ValidationError{Field: "count", Reason: "must be positive"}
	}
	return count, nil
}
