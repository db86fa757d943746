package model

type UserID string

const (
	DefaultUserNickname = "Guest"
	DefaultAvatar       = "/defaults/avatar.png"
)

type User struct {
	ID       UserID `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	IsAdmin  bool   `json:"isAdmin"`
}

func (u *User) Normalize() {
	if u.Nickname == "" {
		u.Nickname = DefaultUserNickname
	}
	if u.Avatar == "" {
		u.Avatar = DefaultAvatar
	}
}

// IsAuthenticated reports whether the user has a server-issued id.
func (u *User) IsAuthenticated() bool {
	return u != nil && u.ID != ""
}

// UserPatch carries the fields of a partial profile update. Nil fields are left alone.
type UserPatch struct {
	Nickname *string `json:"nickname,omitempty"`
	Email    *string `json:"email,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	IsAdmin  *bool   `json:"isAdmin,omitempty"`
}

// Apply returns a copy of u with the patch applied.
func (p UserPatch) Apply(u User) User {
	if p.Nickname != nil {
		u.Nickname = *p.Nickname
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
	return u
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Code     string `json:"code"`
}

type PasswordReset struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

type VerificationPurpose string

const (
	VerifyRegister      VerificationPurpose = "register"
	VerifyResetPassword VerificationPurpose = "reset_password"
)

type VerificationRequest struct {
	Email string              `json:"email"`
	Type  VerificationPurpose `json:"type"`
}

type BaseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type AuthResponse struct {
	BaseResponse
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CheckEmailResponse struct {
	BaseResponse
	UserExists bool `json:"userExists"`
}
