package dispatch

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"boardsync/domain"
	"boardsync/remote"
	"boardsync/store"
)

// ProjectDraft carries the fields of a project create or update form.
type ProjectDraft struct {
	Name        string
	Description string
	Budget      float64
	StartsAt    *time.Time
	Image       *remote.File
}

func (p ProjectDraft) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&p.Budget, validation.Min(0.0)),
	)
}

// InviteIntent asks a user to join a project, by id or by email.
type InviteIntent struct {
	ProjectID string
	UserID    string
	Email     string
}

func (i InviteIntent) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProjectID, validation.Required),
		validation.Field(&i.UserID, validation.Required.When(i.Email == "")),
		validation.Field(&i.Email, validation.When(i.Email != "", is.EmailFormat)),
	)
}

// LoadProjects fetches the project list into the store.
func (d *Dispatcher) LoadProjects(ctx context.Context) {
	d.store.StartLoading(store.ProjectDomain)
	projects, err := d.remote.Projects(ctx)
	if err != nil {
		d.fail(store.ProjectDomain, "project.load", err)
		return
	}
	d.store.ReplaceProjects(projects)
}

// OpenProject fetches a single project by name and selects it.
func (d *Dispatcher) OpenProject(ctx context.Context, name string) {
	if name == "" {
		d.dropInvalid("project.open", errEmptyID)
		return
	}
	d.store.StartLoading(store.ProjectDomain)
	project, err := d.remote.ProjectByName(ctx, name)
	if err != nil {
		d.fail(store.ProjectDomain, "project.open", err)
		return
	}
	d.store.SetProject(project)
}

// CreateProject submits the draft and upserts the created project. Project
// creation goes through a file-bearing form, so it settles server first.
func (d *Dispatcher) CreateProject(ctx context.Context, draft ProjectDraft) {
	if err := draft.Validate(); err != nil {
		d.dropInvalid("project.create", err)
		return
	}
	project, err := d.remote.CreateProject(ctx, projectForm(draft))
	if err != nil {
		d.fail(store.ProjectDomain, "project.create", err)
		return
	}
	d.store.SetProject(project)
}

// UpdateProject submits edited fields and applies the server's copy.
func (d *Dispatcher) UpdateProject(ctx context.Context, projectID string, draft ProjectDraft) {
	if projectID == "" {
		d.dropInvalid("project.update", errEmptyID)
		return
	}
	if err := draft.Validate(); err != nil {
		d.dropInvalid("project.update", err)
		return
	}
	project, err := d.remote.UpdateProject(ctx, projectID, projectForm(draft))
	if err != nil {
		d.fail(store.ProjectDomain, "project.update", err)
		return
	}
	d.store.SetProject(project)
}

// Invite sends a project invitation.
func (d *Dispatcher) Invite(ctx context.Context, intent InviteIntent) {
	if err := intent.Validate(); err != nil {
		d.dropInvalid("project.invite", err)
		return
	}
	inv := domain.Invitation{ProjectID: intent.ProjectID, UserID: intent.UserID, Email: intent.Email}
	if err := d.remote.InviteToProject(ctx, inv); err != nil {
		d.fail(store.ProjectDomain, "project.invite", err)
	}
}

// NotInvitedUsers lists users who can still be invited to the project.
func (d *Dispatcher) NotInvitedUsers(ctx context.Context, projectID string) ([]domain.Contact, error) {
	return d.remote.NotInvitedUsers(ctx, projectID)
}

// SetProjectView records the project list presentation preferences and
// writes them through to durable storage when a saver is wired. A failed
// write keeps the in-memory preference; it simply will not survive the
// session.
func (d *Dispatcher) SetProjectView(ctx context.Context, view domain.ProjectView) {
	d.store.SetProjectView(view)
	if d.views == nil {
		return
	}
	if err := d.views.SaveProjectView(ctx, d.sess.UserID, view); err != nil {
		d.logger.WithError(err).Warn("project view preference not persisted")
	}
}

func projectForm(draft ProjectDraft) *remote.Form {
	form := remote.NewForm().
		Set("name", draft.Name).
		Set("description", draft.Description).
		Set("budget", draft.Budget).
		Set("startsAt", draft.StartsAt)
	if draft.Image != nil {
		form.Set("image", *draft.Image)
	}
	return form
}
