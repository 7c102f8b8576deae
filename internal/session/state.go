package session

import "strings"

// State is the client's view of the session. Authenticated implies a
// user with an id and a role and a non-empty token.
type State struct {
	User            *UserRecord `json:"user"`
	Token           string      `json:"token,omitempty"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	IsLoading       bool        `json:"isLoading"`
	Error           string      `json:"error,omitempty"`
}

// Initial is the state before rehydration has run.
func Initial() State {
	return State{IsLoading: true}
}

type ActionType int

const (
	LoginStart ActionType = iota
	LoginSuccess
	LoginFailure
	Logout
	UpdateUser
	SetLoading
	ClearError
	RestoreSession
)

func (t ActionType) String() string {
	switch t {
	case LoginStart:
		return "LOGIN_START"
	case LoginSuccess:
		return "LOGIN_SUCCESS"
	case LoginFailure:
		return "LOGIN_FAILURE"
	case Logout:
		return "LOGOUT"
	case UpdateUser:
		return "UPDATE_USER"
	case SetLoading:
		return "SET_LOADING"
	case ClearError:
		return "CLEAR_ERROR"
	case RestoreSession:
		return "RESTORE_SESSION"
	}
	return "UNKNOWN"
}

type Action struct {
	Type    ActionType
	User    *UserRecord
	Token   string
	Error   string
	Loading bool
}

func authenticatable(u *UserRecord, token string) bool {
	return u.Valid() && strings.TrimSpace(u.Role) != "" && token != ""
}

// Reduce returns the state after applying a. It never mutates s. Success
// and restore actions that would break the authenticated invariant are
// turned into a failure.
func Reduce(s State, a Action) State {
	switch a.Type {
	case LoginStart:
		s.IsLoading = true
		s.Error = ""
	case LoginSuccess, RestoreSession:
		if !authenticatable(a.User, a.Token) {
			return State{Error: "invalid session data"}
		}
		u := *a.User
		return State{User: &u, Token: a.Token, IsAuthenticated: true}
	case LoginFailure:
		return State{Error: a.Error}
	case Logout:
		return State{}
	case UpdateUser:
		if s.User == nil || a.User == nil {
			return s
		}
		merged := s.User.Merge(*a.User)
		if s.IsAuthenticated && !authenticatable(&merged, s.Token) {
			return s
		}
		s.User = &merged
	case SetLoading:
		s.IsLoading = a.Loading
	case ClearError:
		s.Error = ""
	}
	return s
}
