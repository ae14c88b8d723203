package admin

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/assessment-api/internal/config"
	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/localstore"
)

type fakeAPI struct {
	users       []entity.User
	submissions []entity.Submission
	err         error
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]entity.User, error) {
	return f.users, f.err
}

func (f *fakeAPI) ListSubmissions(ctx context.Context) ([]entity.Submission, error) {
	return f.submissions, f.err
}

func newTestView(t *testing.T, api API, creds config.AdminConfig) (*View, *localstore.Store) {
	t.Helper()
	store := localstore.New(filepath.Join(t.TempDir(), "state.json"))
	return NewView(api, store, creds), store
}

func TestView_LoginPlaintext(t *testing.T) {
	v, store := newTestView(t, &fakeAPI{}, config.AdminConfig{Email: "admin@x.com", Password: "secret"})

	assert.ErrorIs(t, v.Login("admin@x.com", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, v.Login("other@x.com", "secret"), ErrInvalidCredentials)
	_, ok := v.Current()
	assert.False(t, ok)

	require.NoError(t, v.Login("  admin@x.com ", "secret"))
	email, ok := v.Current()
	assert.True(t, ok)
	assert.Equal(t, "admin@x.com", email)

	var isAdmin bool
	found, err := store.Get(localstore.KeyIsAdmin, &isAdmin)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, isAdmin)

	require.NoError(t, v.Logout())
	_, ok = v.Current()
	assert.False(t, ok)
}

func TestView_LoginBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	v, _ := newTestView(t, &fakeAPI{}, config.AdminConfig{Email: "admin@x.com", Password: string(hash)})

	assert.ErrorIs(t, v.Login("admin@x.com", string(hash)), ErrInvalidCredentials)
	require.NoError(t, v.Login("admin@x.com", "s3cret"))
}

func TestView_LoginWithoutConfiguredCredentials(t *testing.T) {
	v, _ := newTestView(t, &fakeAPI{}, config.AdminConfig{})
	assert.ErrorIs(t, v.Login("", ""), ErrInvalidCredentials)
}

func TestView_DashboardRequiresLogin(t *testing.T) {
	v, _ := newTestView(t, &fakeAPI{}, config.AdminConfig{Email: "admin@x.com", Password: "secret"})

	_, err := v.Dashboard(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestView_DashboardPropagatesAPIError(t *testing.T) {
	api := &fakeAPI{err: errors.New("connection refused")}
	v, _ := newTestView(t, api, config.AdminConfig{Email: "admin@x.com", Password: "secret"})
	require.NoError(t, v.Login("admin@x.com", "secret"))

	_, err := v.Dashboard(context.Background())
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := []entity.User{
		{Name: "Old", Email: "old@x.com", LastLogin: now.Add(-48 * time.Hour)},
		{Name: "Recent", Email: "recent@x.com", LastLogin: now.Add(-time.Hour)},
		{Name: "Edge", Email: "edge@x.com", LastLogin: now.Add(-ActiveWindow)},
	}
	submissions := []entity.Submission{
		{ID: "s1", User: "recent@x.com", SubmittedAt: now.Add(-2 * time.Hour),
			Answers: entity.Answers{"1": entity.Option("A"), "2": nil}},
		{ID: "s2", User: "ghost@x.com", SubmittedAt: now.Add(-time.Minute),
			Answers: entity.Answers{"1": entity.Option("B"), "2": entity.Option("C")}},
	}

	d := Summarize(users, submissions, now)

	assert.Equal(t, 3, d.TotalUsers)
	assert.Equal(t, 2, d.ActiveUsers)
	assert.Equal(t, 2, d.TotalSubmissions)

	require.Len(t, d.Users, 3)
	assert.Equal(t, "recent@x.com", d.Users[0].Email)
	assert.Equal(t, "old@x.com", d.Users[2].Email)

	require.Len(t, d.Submissions, 2)
	assert.Equal(t, "s2", d.Submissions[0].ID)
	assert.Equal(t, "", d.Submissions[0].UserName)
	assert.Equal(t, 2, d.Submissions[0].Answered)
	assert.Equal(t, "Recent", d.Submissions[1].UserName)
	assert.Equal(t, 1, d.Submissions[1].Answered)
	assert.Equal(t, 1, d.Submissions[1].Skipped)
}

func TestSummarize_Empty(t *testing.T) {
	d := Summarize(nil, nil, time.Now())
	assert.Zero(t, d.TotalUsers)
	assert.Zero(t, d.ActiveUsers)
	assert.Empty(t, d.Submissions)
}
