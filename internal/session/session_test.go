package session

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	login     *LoginResult
	loginErr  error
	me        *UserRecord
	meErr     error
	meCalls   int
	loggedOut bool
}

func (f *fakeAPI) Login(_ context.Context, _, _ string) (*LoginResult, error) {
	return f.login, f.loginErr
}

func (f *fakeAPI) Register(_ context.Context, r Registration) error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

func (f *fakeAPI) Me(_ context.Context, _ string) (*UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	return f.me, f.meErr
}

func (f *fakeAPI) UpdateProfile(_ context.Context, _ string, fields map[string]string) (*UserRecord, error) {
	return &UserRecord{Name: fields["first_name"] + " " + fields["last_name"]}, nil
}

func (f *fakeAPI) ChangePassword(_ context.Context, _, current, _ string) error {
	if current != "old" {
		return errors.New("current password is incorrect")
	}
	return nil
}

func (f *fakeAPI) Logout(_ context.Context, _, _ string) error {
	f.loggedOut = true
	return nil
}

func faculty() UserRecord {
	return UserRecord{ID: "u1", Name: "Ana Cruz", Email: "ana@school.edu", Role: "faculty"}
}

func TestReduceLoginSuccess(t *testing.T) {
	u := faculty()
	s := Reduce(Initial(), Action{Type: LoginStart})
	assert.True(t, s.IsLoading)

	s = Reduce(s, Action{Type: LoginSuccess, User: &u, Token: "t"})
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	assert.Equal(t, "t", s.Token)
	assert.Equal(t, "u1", s.User.ID)
}

func TestReduceRejectsIncompleteSession(t *testing.T) {
	cases := map[string]Action{
		"no user":  {Type: LoginSuccess, Token: "t"},
		"no token": {Type: LoginSuccess, User: &UserRecord{ID: "u1", Role: "faculty"}},
		"no id":    {Type: RestoreSession, User: &UserRecord{Role: "faculty"}, Token: "t"},
		"no role":  {Type: RestoreSession, User: &UserRecord{ID: "u1"}, Token: "t"},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			s := Reduce(Initial(), a)
			assert.False(t, s.IsAuthenticated)
			assert.Nil(t, s.User)
			assert.Equal(t, "invalid session data", s.Error)
		})
	}
}

func TestReduceUpdateUserKeepsInvariant(t *testing.T) {
	u := faculty()
	s := Reduce(Initial(), Action{Type: LoginSuccess, User: &u, Token: "t"})

	s = Reduce(s, Action{Type: UpdateUser, User: &UserRecord{Name: "Ana C."}})
	assert.Equal(t, "Ana C.", s.User.Name)
	assert.Equal(t, "faculty", s.User.Role)

	s = Reduce(s, Action{Type: Logout})
	assert.Equal(t, State{}, s)
}

func TestActionTypeString(t *testing.T) {
	assert.Equal(t, "RESTORE_SESSION", RestoreSession.String())
	assert.Equal(t, "UNKNOWN", ActionType(99).String())
}

func TestUserRecordTolerantDecode(t *testing.T) {
	var u UserRecord
	err := json.Unmarshal([]byte(`{"user_id":42,"first_name":"Ana","last_name":"Cruz","role_name":"Faculty","profile_pic":"/a.png","year_level":3}`), &u)
	require.NoError(t, err)
	assert.Equal(t, "42", u.ID)
	assert.Equal(t, "Ana Cruz", u.Name)
	assert.Equal(t, "Faculty", u.Role)
	assert.Equal(t, "/a.png", u.ProfilePic)
	assert.JSONEq(t, "3", string(u.Extra["year_level"]))

	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"year_level":3`)

	assert.Error(t, json.Unmarshal([]byte(`null`), &u))
}

func TestSetCachedMinimizesLargeValues(t *testing.T) {
	store := NewMemoryStorage()
	u := faculty()
	u.ProfilePic = "data:image/png;base64," + strings.Repeat("A", 2048)

	require.NoError(t, SetCached(store, UserDataKey, u, 1024))
	raw, ok, err := store.Get(UserDataKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "profilePic")
	assert.Contains(t, raw, `"id":"u1"`)
}

func TestSetCachedRetriesOnQuota(t *testing.T) {
	store := NewMemoryStorage()
	store.Quota = 200
	u := faculty()
	u.ProfilePic = strings.Repeat("p", 300)

	require.NoError(t, SetCached(store, UserDataKey, u, 0))
	raw, _, _ := store.Get(UserDataKey)
	assert.NotContains(t, raw, "profilePic")
}

func TestManagerLoginPersistsAndRefreshes(t *testing.T) {
	u := faculty()
	api := &fakeAPI{
		login: &LoginResult{Token: "tok", RefreshToken: "ref", User: u},
		me:    &UserRecord{ID: "u1", Role: "faculty", DepartmentID: "d1"},
	}
	local := NewMemoryStorage()
	m := NewManager(api, local, NewMemoryStorage())
	defer m.Close()

	res := m.Login(context.Background(), "ana@school.edu", "pw")
	require.True(t, res.Success)
	m.Wait()

	st := m.State()
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, "d1", st.User.DepartmentID)
	assert.Equal(t, 1, api.meCalls)

	token, ok, _ := local.Get(AuthTokenKey)
	assert.True(t, ok)
	assert.Equal(t, "tok", token)
	raw, _, _ := local.Get(UserDataKey)
	assert.Contains(t, raw, `"department_id":"d1"`)
	assert.Equal(t, "/faculty", m.DashboardPath())
	assert.True(t, m.IsFaculty())
	assert.False(t, m.IsAdmin())
}

func TestManagerLoginFailure(t *testing.T) {
	api := &fakeAPI{loginErr: errors.New("Invalid email or password")}
	m := NewManager(api, NewMemoryStorage(), NewMemoryStorage())
	defer m.Close()

	res := m.Login(context.Background(), "x@y.z", "bad")
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid email or password", res.Error)
	assert.Equal(t, "Invalid email or password", m.State().Error)
	assert.Equal(t, "/login", m.DashboardPath())
}

func TestManagerBackgroundRefreshFailureKeepsSession(t *testing.T) {
	u := faculty()
	api := &fakeAPI{login: &LoginResult{Token: "tok", User: u}, meErr: errors.New("boom")}
	m := NewManager(api, NewMemoryStorage(), NewMemoryStorage())
	defer m.Close()

	require.True(t, m.Login(context.Background(), "a", "b").Success)
	m.Wait()
	assert.True(t, m.State().IsAuthenticated)
}

func TestManagerLogoutClearsStorage(t *testing.T) {
	u := faculty()
	api := &fakeAPI{login: &LoginResult{Token: "tok", RefreshToken: "ref", User: u}, me: &u}
	local, sess := NewMemoryStorage(), NewMemoryStorage()
	m := NewManager(api, local, sess)
	defer m.Close()

	require.True(t, m.Login(context.Background(), "a", "b").Success)
	m.Wait()
	require.NoError(t, sess.Set(IntendedDestinationKey, "/faculty/classes"))

	m.Logout(context.Background())
	assert.True(t, api.loggedOut)
	assert.Equal(t, 0, local.Len())
	assert.Equal(t, 0, sess.Len())
	assert.False(t, m.State().IsAuthenticated)
}

func TestManagerRehydrate(t *testing.T) {
	t.Run("valid session", func(t *testing.T) {
		local := NewMemoryStorage()
		require.NoError(t, local.Set(AuthTokenKey, "tok"))
		require.NoError(t, local.Set(UserDataKey, `{"id":"u1","role":"ADMIN"}`))
		api := &fakeAPI{meErr: errors.New("offline")}
		m := NewManager(api, local, NewMemoryStorage())
		defer m.Close()

		st := m.Rehydrate()
		m.Wait()
		assert.True(t, st.IsAuthenticated)
		assert.True(t, m.IsAdmin())
		assert.Equal(t, "/admin", m.DashboardPath())
		assert.Equal(t, 2, local.Len())
	})

	t.Run("invalid json clears storage", func(t *testing.T) {
		local := NewMemoryStorage()
		require.NoError(t, local.Set(AuthTokenKey, "tok"))
		require.NoError(t, local.Set(UserDataKey, `{not json`))
		m := NewManager(&fakeAPI{}, local, NewMemoryStorage())
		defer m.Close()

		st := m.Rehydrate()
		assert.False(t, st.IsAuthenticated)
		assert.False(t, st.IsLoading)
		assert.Equal(t, 0, local.Len())
	})

	t.Run("missing id clears storage", func(t *testing.T) {
		local := NewMemoryStorage()
		require.NoError(t, local.Set(AuthTokenKey, "tok"))
		require.NoError(t, local.Set(UserDataKey, `{"role":"faculty"}`))
		m := NewManager(&fakeAPI{}, local, NewMemoryStorage())
		defer m.Close()

		assert.False(t, m.Rehydrate().IsAuthenticated)
		assert.Equal(t, 0, local.Len())
	})

	t.Run("nothing stored", func(t *testing.T) {
		m := NewManager(&fakeAPI{}, NewMemoryStorage(), NewMemoryStorage())
		defer m.Close()
		st := m.Rehydrate()
		assert.False(t, st.IsAuthenticated)
		assert.False(t, st.IsLoading)
	})
}

func TestManagerProfileOperations(t *testing.T) {
	u := faculty()
	api := &fakeAPI{login: &LoginResult{Token: "tok", User: u}, me: &u}
	m := NewManager(api, NewMemoryStorage(), NewMemoryStorage())
	defer m.Close()

	assert.False(t, m.ChangePassword(context.Background(), "old", "new").Success)

	require.True(t, m.Login(context.Background(), "a", "b").Success)
	m.Wait()

	res := m.UpdateProfile(context.Background(), map[string]string{"first_name": "Anna", "last_name": "Cruz"})
	require.True(t, res.Success)
	assert.Equal(t, "Anna Cruz", m.State().User.Name)

	assert.True(t, m.ChangePassword(context.Background(), "old", "new").Success)
	bad := m.ChangePassword(context.Background(), "wrong", "new")
	assert.False(t, bad.Success)
	assert.Equal(t, "current password is incorrect", bad.Error)

	m.UpdateUser(UserRecord{Role: "dean"})
	assert.True(t, m.IsDean())
}

func TestManagerRegisterDoesNotSignIn(t *testing.T) {
	m := NewManager(&fakeAPI{}, NewMemoryStorage(), NewMemoryStorage())
	defer m.Close()

	assert.True(t, m.Register(context.Background(), Registration{Email: "s@school.edu"}).Success)
	assert.False(t, m.State().IsAuthenticated)
	assert.False(t, m.Register(context.Background(), Registration{}).Success)
}

func TestSQLiteStorage(t *testing.T) {
	db, err := OpenStateDB(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer db.Close()

	store, err := NewSQLiteStorage(db, "local_storage")
	require.NoError(t, err)

	_, ok, err := store.Get(AuthTokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(AuthTokenKey, "a"))
	require.NoError(t, store.Set(AuthTokenKey, "b"))
	v, ok, err := store.Get(AuthTokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	require.NoError(t, store.Remove(AuthTokenKey))
	_, ok, _ = store.Get(AuthTokenKey)
	assert.False(t, ok)

	_, err = NewSQLiteStorage(db, "bad; drop")
	assert.Error(t, err)
}
