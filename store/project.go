package store

import "boardsync/domain"

// ReplaceProjects rebuilds the project collection from a full fetch.
func (s *Store) ReplaceProjects(projects []domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project.projects.ReplaceAll(projects)
	s.project.status.Loading = false
}

// Projects returns the projects in presentation order.
func (s *Store) Projects() []domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.projects.All()
}

// SetProject records the currently selected project and upserts it into the
// collection so a later list render sees the fresh copy.
func (s *Store) SetProject(p domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project.projects.Upsert(p)
	cp := p
	s.project.selected = &cp
	s.project.status.Loading = false
}

// SelectedProject returns the selected project, if any.
func (s *Store) SelectedProject() (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project.selected == nil {
		return domain.Project{}, false
	}
	return *s.project.selected, true
}

// SetProjectView stores the persistent project list preferences. The prefs
// layer is responsible for writing them through to durable storage.
func (s *Store) SetProjectView(v domain.ProjectView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project.view = v
}

// ProjectView returns the persistent project list preferences.
func (s *Store) ProjectView() domain.ProjectView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.view
}
