package devserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"boardsync/domain"
)

func (s *Server) getProjects(c echo.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name := c.QueryParam("name"); name != "" {
		for _, p := range s.projects {
			if strings.EqualFold(p.Name, name) {
				return c.JSON(http.StatusOK, p)
			}
		}
		return c.String(http.StatusNotFound, "no such project")
	}
	return c.JSON(http.StatusOK, s.projects)
}

func (s *Server) createProject(c echo.Context, uid string) error {
	draft, err := projectFromForm(c)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	if draft.Name == "" {
		return c.String(http.StatusBadRequest, "name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	draft.ID = s.newID("proj")
	draft.UserID = uid
	draft.Status = domain.ProjectInProgress
	s.projects = append(s.projects, draft)
	return c.JSON(http.StatusCreated, draft)
}

func (s *Server) patchProject(c echo.Context, _ string) error {
	draft, err := projectFromForm(c)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID != c.Param("id") {
			continue
		}
		if draft.Name != "" {
			s.projects[i].Name = draft.Name
		}
		if draft.Description != "" {
			s.projects[i].Description = draft.Description
		}
		if draft.Budget != 0 {
			s.projects[i].Budget = draft.Budget
		}
		if draft.StartsAt != nil {
			s.projects[i].StartsAt = draft.StartsAt
		}
		if draft.Image != "" {
			s.projects[i].Image = draft.Image
		}
		return c.JSON(http.StatusOK, s.projects[i])
	}
	return c.String(http.StatusNotFound, "no such project")
}

func projectFromForm(c echo.Context) (domain.Project, error) {
	var p domain.Project
	form, err := c.MultipartForm()
	if err != nil {
		return p, err
	}
	get := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	p.Name = get("name")
	p.Description = get("description")
	if v := get("budget"); v != "" {
		if budget, err := strconv.ParseFloat(v, 64); err == nil {
			p.Budget = budget
		}
	}
	if v := get("startsAt"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			p.StartsAt = &t
		}
	}
	if files := form.File["image"]; len(files) > 0 {
		p.Image = "/uploads/" + files[0].Filename
	}
	return p, nil
}

func (s *Server) createInvitation(c echo.Context, _ string) error {
	var inv domain.Invitation
	if err := c.Bind(&inv); err != nil || inv.ProjectID == "" {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	if inv.UserID == "" && inv.Email == "" {
		return c.String(http.StatusBadRequest, "user or email required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, p := range s.projects {
		if p.ID == inv.ProjectID {
			found = true
			break
		}
	}
	if !found {
		return c.String(http.StatusNotFound, "no such project")
	}
	s.invitations = append(s.invitations, inv)
	return c.NoContent(http.StatusCreated)
}

// notInvitedUsers lists contacts who are neither project participants nor
// already invited.
func (s *Server) notInvitedUsers(c echo.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	projectID := c.Param("id")
	var project *domain.Project
	for i := range s.projects {
		if s.projects[i].ID == projectID {
			project = &s.projects[i]
			break
		}
	}
	if project == nil {
		return c.String(http.StatusNotFound, "no such project")
	}
	taken := make(map[string]struct{})
	for _, p := range project.Participants {
		taken[p.ID] = struct{}{}
	}
	for _, inv := range s.invitations {
		if inv.ProjectID == projectID && inv.UserID != "" {
			taken[inv.UserID] = struct{}{}
		}
	}
	out := []domain.Contact{}
	for _, contact := range s.contacts {
		if _, ok := taken[contact.ID]; !ok {
			out = append(out, contact)
		}
	}
	return c.JSON(http.StatusOK, out)
}
