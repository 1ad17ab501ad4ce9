package main

// handlers.go this is our public JSON API

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// publicEndpoints maps each /api path to the table it serves.
var publicEndpoints = []struct {
	Path  string
	Table string
}{
	{"/api/education", "education"},
	{"/api/projects", "projects"},
	{"/api/skills", "skills"},
	{"/api/certifications", "certifications"},
	{"/api/social", "social_links"},
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTable returns every row of t in its declared order.
func (a *App) ListTable(t *Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := a.repo.List(r.Context(), t, t.Order)
		if err != nil {
			slog.Error("error fetching rows", "table", t.Name, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func (a *App) GetProfile(w http.ResponseWriter, r *http.Request) {
	t, _ := lookupTable("profile")
	row, err := a.repo.First(r.Context(), t)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	if err != nil {
		slog.Error("error fetching profile", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Contact stores the message first and only then tries to email it. A failed
// or unconfigured send still answers 202 because the message is saved.
func (a *App) Contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("unreadable contact body", "error", err)
	}
	c := Contact{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Message: strings.TrimSpace(req.Message),
	}
	if c.Name == "" || c.Email == "" || c.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Name, email, and message are required."})
		return
	}

	t, _ := lookupTable("messages")
	id, err := a.repo.Insert(r.Context(), t, Fields{"name": c.Name, "email": c.Email, "message": c.Message})
	if err != nil {
		slog.Error("error saving contact message", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	slog.Info("contact message saved", "id", id)

	if err := a.notifier.Notify(r.Context(), c); err != nil {
		slog.Warn("contact notification not sent", "id", id, "error", err)
		writeJSON(w, http.StatusAccepted, map[string]string{
			"message":     "Saved, email not sent",
			"email_error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Saved and sent"})
}
