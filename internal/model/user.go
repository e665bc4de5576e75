package model

// Roles issued by the backend.  Admins manage employees; employees manage
// complaints.  Any other value is treated as an employee-less, read-only
// session by the portal.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User is the account returned by the backend on login.  The portal never
// mutates it; it is serialized into the session store under the "user" key
// and read back on every request.
//
// Fields:
//  ID         – backend user id.
//  Name       – display name.
//  NationalID – national identity number.
//  Identifier – login identifier (phone number in E.164 form).
//  Role       – "admin" or "employee".
//  FCMToken   – optional push token of the user's device.
type User struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Identifier string `json:"identifier"`
	Role       string `json:"role"`
	FCMToken   string `json:"fcm_token,omitempty"`
}

// IsAdmin reports whether the user manages employees.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// CanEditComplaints reports whether the complaint list is status-editable
// for this user.  Admins see the list read-only.
func (u User) CanEditComplaints() bool { return u.Role == RoleEmployee }

// HomePath is where the user lands after login.
func (u User) HomePath() string {
	if u.IsAdmin() {
		return "/dashboard"
	}
	return "/"
}
