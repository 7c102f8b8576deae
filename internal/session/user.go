package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// UserRecord is the signed-in user as cached on the client. Decoding is
// tolerant: user_id is accepted for id, role_name for role, and keys the
// client does not model are kept in Extra and written back unchanged.
type UserRecord struct {
	ID           string
	Name         string
	Email        string
	Role         string
	RoleName     string
	DepartmentID string
	ProfilePic   string
	Extra        map[string]json.RawMessage
}

var knownUserKeys = map[string]bool{
	"id": true, "user_id": true, "name": true, "email": true, "role": true,
	"role_name": true, "department_id": true, "profilePic": true, "profile_pic": true,
}

func (u *UserRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("user record must be an object")
	}

	*u = UserRecord{}
	u.ID = firstString(raw, "id", "user_id")
	u.Name = firstString(raw, "name")
	u.Email = firstString(raw, "email")
	u.RoleName = firstString(raw, "role_name")
	u.Role = firstString(raw, "role", "role_name")
	u.DepartmentID = firstString(raw, "department_id")
	u.ProfilePic = firstString(raw, "profilePic", "profile_pic")
	if u.Name == "" {
		u.Name = strings.TrimSpace(firstString(raw, "first_name") + " " + firstString(raw, "last_name"))
	}

	for k, v := range raw {
		if knownUserKeys[k] {
			continue
		}
		if u.Extra == nil {
			u.Extra = make(map[string]json.RawMessage)
		}
		u.Extra[k] = v
	}
	return nil
}

func (u UserRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(u.Extra)+8)
	for k, v := range u.Extra {
		out[k] = v
	}
	out["id"] = u.ID
	out["name"] = u.Name
	out["email"] = u.Email
	out["role"] = u.Role
	if u.RoleName != "" {
		out["role_name"] = u.RoleName
	}
	if u.DepartmentID != "" {
		out["department_id"] = u.DepartmentID
	}
	if u.ProfilePic != "" {
		out["profilePic"] = u.ProfilePic
	}
	return json.Marshal(out)
}

// Valid reports whether the record can back an authenticated session.
func (u *UserRecord) Valid() bool {
	return u != nil && strings.TrimSpace(u.ID) != ""
}

// Merge applies the non-empty fields of patch on top of u.
func (u UserRecord) Merge(patch UserRecord) UserRecord {
	if patch.ID != "" {
		u.ID = patch.ID
	}
	if patch.Name != "" {
		u.Name = patch.Name
	}
	if patch.Email != "" {
		u.Email = patch.Email
	}
	if patch.Role != "" {
		u.Role = patch.Role
	}
	if patch.RoleName != "" {
		u.RoleName = patch.RoleName
	}
	if patch.DepartmentID != "" {
		u.DepartmentID = patch.DepartmentID
	}
	if patch.ProfilePic != "" {
		u.ProfilePic = patch.ProfilePic
	}
	if len(patch.Extra) > 0 {
		extra := make(map[string]json.RawMessage, len(u.Extra)+len(patch.Extra))
		for k, v := range u.Extra {
			extra[k] = v
		}
		for k, v := range patch.Extra {
			extra[k] = v
		}
		u.Extra = extra
	}
	return u
}

// firstString returns the first key holding a string or number.
func firstString(raw map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || len(v) == 0 || bytes.Equal(v, []byte("null")) {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			return n.String()
		}
	}
	return ""
}
