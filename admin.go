package main

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
)

// The admin controller is one set of handlers for every table; the table
// descriptor named in the URL drives the columns, the form and the coercion.

// newestFirst is the admin list order, unlike the public API.
var newestFirst = []OrderKey{{Column: "id", Desc: true}}

type listData struct {
	Table *Table
	Rows  []Row
}

type formData struct {
	Table   *Table
	Columns []Column
	Values  map[string]string
	Action  string
}

type tableSummary struct {
	Name     string
	Title    string
	Count    int64
	ReadOnly bool
}

type messageSummary struct {
	Name     string
	Email    string
	Message  string
	Received string
}

type dashboardData struct {
	Tables   []tableSummary
	Messages []messageSummary
	Profile  template.HTML
}

func (a *App) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := dashboardData{}
	for _, name := range adminTableNames {
		t, err := adminTable(name)
		if err != nil {
			a.adminError(w, r, err)
			return
		}
		n, err := a.repo.Count(ctx, t)
		if err != nil {
			a.adminError(w, r, err)
			return
		}
		data.Tables = append(data.Tables, tableSummary{Name: t.Name, Title: t.Title, Count: n, ReadOnly: t.ReadOnly})
	}

	messages, _ := lookupTable("messages")
	rows, err := a.repo.List(ctx, messages, newestFirst)
	if err != nil {
		a.adminError(w, r, err)
		return
	}
	if len(rows) > 5 {
		rows = rows[:5]
	}
	created, _ := messages.Column("created_at")
	for _, row := range rows {
		data.Messages = append(data.Messages, messageSummary{
			Name:     formatValue(Column{}, row["name"]),
			Email:    formatValue(Column{}, row["email"]),
			Message:  formatValue(Column{}, row["message"]),
			Received: formatValue(created, row["created_at"]),
		})
	}

	profile, _ := lookupTable("profile")
	row, err := a.repo.First(ctx, profile)
	switch {
	case err == nil:
		data.Profile = a.views.markdown(formatValue(Column{}, row["content"]))
	case !errors.Is(err, ErrNotFound):
		a.adminError(w, r, err)
		return
	}

	a.views.render(w, r, http.StatusOK, "dashboard", page{Title: "Dashboard", Data: data})
}

func (a *App) AdminList(w http.ResponseWriter, r *http.Request) {
	t, err := adminTable(mux.Vars(r)["table"])
	if err != nil {
		a.adminError(w, r, err)
		return
	}
	rows, err := a.repo.List(r.Context(), t, newestFirst)
	if err != nil {
		a.adminError(w, r, err)
		return
	}
	a.views.render(w, r, http.StatusOK, "list", page{Title: t.Title, Data: listData{Table: t, Rows: rows}})
}

func (a *App) AdminAddForm(w http.ResponseWriter, r *http.Request) {
	t, ok := a.writableTable(w, r)
	if !ok {
		return
	}
	a.renderForm(w, r, http.StatusOK, t, "/admin/"+t.Name+"/add", map[string]string{}, "")
}

func (a *App) AdminAdd(w http.ResponseWriter, r *http.Request) {
	t, ok := a.writableTable(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	action := "/admin/" + t.Name + "/add"
	fields, err := coerceForm(t, r.PostForm, false)
	if err != nil {
		a.formError(w, r, t, action, err)
		return
	}
	id, err := a.repo.Insert(r.Context(), t, fields)
	if err != nil {
		a.formError(w, r, t, action, err)
		return
	}
	slog.Info("row added", "table", t.Name, "id", id, "by", adminUser(r.Context()))
	http.Redirect(w, r, "/admin/"+t.Name, http.StatusSeeOther)
}

func (a *App) AdminEditForm(w http.ResponseWriter, r *http.Request) {
	t, ok := a.writableTable(w, r)
	if !ok {
		return
	}
	id, ok := rowID(w, r)
	if !ok {
		return
	}
	row, err := a.repo.Get(r.Context(), t, id)
	if err != nil {
		a.adminError(w, r, err)
		return
	}
	a.renderForm(w, r, http.StatusOK, t, editAction(t, id), formValues(t, row), "")
}

func (a *App) AdminEdit(w http.ResponseWriter, r *http.Request) {
	t, ok := a.writableTable(w, r)
	if !ok {
		return
	}
	id, ok := rowID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	fields, err := coerceForm(t, r.PostForm, true)
	if err != nil {
		a.formError(w, r, t, editAction(t, id), err)
		return
	}
	if err := a.repo.Update(r.Context(), t, id, fields); err != nil {
		a.formError(w, r, t, editAction(t, id), err)
		return
	}
	slog.Info("row updated", "table", t.Name, "id", id, "by", adminUser(r.Context()))
	http.Redirect(w, r, "/admin/"+t.Name, http.StatusSeeOther)
}

// AdminDelete treats a missing row as already deleted.
func (a *App) AdminDelete(w http.ResponseWriter, r *http.Request) {
	t, ok := a.writableTable(w, r)
	if !ok {
		return
	}
	id, ok := rowID(w, r)
	if !ok {
		return
	}
	err := a.repo.Delete(r.Context(), t, id)
	switch {
	case err == nil:
		slog.Info("row deleted", "table", t.Name, "id", id, "by", adminUser(r.Context()))
	case errors.Is(err, ErrNotFound):
		slog.Debug("delete of missing row", "table", t.Name, "id", id)
	default:
		a.adminError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/"+t.Name, http.StatusSeeOther)
}

func (a *App) writableTable(w http.ResponseWriter, r *http.Request) (*Table, bool) {
	t, err := adminTable(mux.Vars(r)["table"])
	if err != nil {
		a.adminError(w, r, err)
		return nil, false
	}
	if t.ReadOnly {
		a.adminError(w, r, fmt.Errorf("%s: %w", t.Name, ErrReadOnlyTable))
		return nil, false
	}
	return t, true
}

func rowID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "Resource not found", http.StatusNotFound)
		return 0, false
	}
	return uint(id), true
}

func editAction(t *Table, id uint) string {
	return fmt.Sprintf("/admin/%s/edit/%d", t.Name, id)
}

func (a *App) renderForm(w http.ResponseWriter, r *http.Request, status int, t *Table, action string, values map[string]string, msg string) {
	verb := "Add"
	if action != "/admin/"+t.Name+"/add" {
		verb = "Edit"
	}
	a.views.render(w, r, status, "form", page{
		Title: verb + " " + columnLabel(t.Name),
		Error: msg,
		Data: formData{
			Table:   t,
			Columns: t.WritableColumns(),
			Values:  values,
			Action:  action,
		},
	})
}

// formError re-renders the submitted form for validation failures and falls
// back to adminError for everything else.
func (a *App) formError(w http.ResponseWriter, r *http.Request, t *Table, action string, err error) {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		a.adminError(w, r, err)
		return
	}
	a.renderForm(w, r, http.StatusBadRequest, t, action, submittedValues(t, r.PostForm), verr.Error())
}

func submittedValues(t *Table, form url.Values) map[string]string {
	values := make(map[string]string, len(t.Columns))
	for _, c := range t.WritableColumns() {
		values[c.Name] = form.Get(c.Name)
	}
	return values
}

func (a *App) adminError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUnknownTable), errors.Is(err, ErrNotFound):
		http.Error(w, "Resource not found", http.StatusNotFound)
	case errors.Is(err, ErrReadOnlyTable):
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	case errors.Is(err, ErrUnknownColumn):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("admin request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
