package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/leaderboard"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Value  int64  `json:"value"`
}

type LeaderboardPage struct {
	Mode       string             `json:"mode"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
	Total      int64              `json:"total"`
	Entries    []LeaderboardEntry `json:"entries"`
}

type api struct {
	fetcher leaderboard.Fetcher
}

func newRouter(fetcher leaderboard.Fetcher) *mux.Router {
	a := &api{fetcher: fetcher}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", a.healthz).Methods("GET")

	sub := r.PathPrefix("/api").Subrouter()
	sub.HandleFunc("/guilds/{guild}/leaderboard", a.getLeaderboard).Methods("GET")
	return r
}

func (a *api) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// getLeaderboard serves one page of a guild leaderboard. page is 1-based
// in the query and clamped into range.
func (a *api) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guild"]
	query := r.URL.Query()

	mode, err := leaderboard.ParseMode(query.Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown mode: "+query.Get("mode"))
		return
	}

	page := 1
	if raw := query.Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
	}

	rendered, err := leaderboard.Load(r.Context(), a.fetcher, guildID, mode, page-1)
	switch {
	case errors.Is(err, leaderboard.ErrGuildNotRegistered):
		writeError(w, http.StatusNotFound, "guild is not registered: "+guildID)
		return
	case err != nil:
		log.Warn().Err(err).Str("guild", guildID).Msg("Leaderboard request failed")
		writeError(w, http.StatusServiceUnavailable, "leaderboard data is unavailable")
		return
	}

	entries := make([]LeaderboardEntry, 0, len(rendered.Lines))
	for _, line := range rendered.Lines {
		entries = append(entries, LeaderboardEntry{Rank: line.Rank, UserID: line.EntityID, Value: line.Value})
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: LeaderboardPage{
			Mode:       mode.String(),
			Page:       rendered.Index + 1,
			TotalPages: rendered.TotalPages,
			Total:      rendered.Total,
			Entries:    entries,
		},
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
