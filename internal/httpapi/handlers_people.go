package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/export"
	"github.com/alexanderramin/stagegate/internal/service"
)

func (s *Server) handleListRemarks(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	remarks, err := s.svc.Remarks.List(r.Context(), p.ID, r.URL.Query().Get("stage"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listOf(remarks, fromRemark))
}

type remarkRequest struct {
	Stage string `json:"stage"`
	Body  string `json:"body"`
}

func (s *Server) handleAddRemark(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	var body remarkRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	remark, err := s.svc.Remarks.Add(r.Context(), userFrom(r.Context()), service.RemarkRequest{
		ProjectID: p.ID,
		StageCode: body.Stage,
		Body:      body.Body,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, fromRemark(remark))
}

func (s *Server) handleMentions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, err := s.svc.Users.MentionSearch(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listOf(users, func(u *domain.User) UserRef {
		return UserRef{Username: u.Username, DisplayName: u.DisplayName, Role: string(u.Role)}
	}))
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	user := userFrom(r.Context())
	list, err := s.svc.Notifications.List(r.Context(), user, q.Get("unread") == "1", limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	unread, err := s.svc.Notifications.UnreadCount(r.Context(), user)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp := struct {
		ListResponse[Notification]
		Unread int `json:"unread"`
	}{listOf(list, fromNotification), unread}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReadNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Notifications.MarkRead(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReadAllNotifications(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Notifications.MarkAllRead(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"marked": n})
}

func (s *Server) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, userFrom(r.Context()).Username)
}

func (s *Server) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	holidays, err := s.svc.Holidays.List(r.Context(), year)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listOf(holidays, func(h domain.Holiday) Holiday {
		return Holiday{Date: date(&h.Date), Name: h.Name}
	}))
}

func (s *Server) handleAddHoliday(w http.ResponseWriter, r *http.Request) {
	var body Holiday
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	d, err := domain.ParseDate(body.Date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.svc.Holidays.Add(r.Context(), userFrom(r.Context()), domain.Holiday{Date: d, Name: body.Name}); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, body)
}

type exportBuffer = bytes.Buffer

// writeExport renders into memory first so a failed export still gets a
// JSON error instead of a truncated file.
func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, format export.Format, name string, render func(*exportBuffer) error) {
	var buf exportBuffer
	if err := render(&buf); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"."+string(format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
