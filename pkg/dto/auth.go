package dto

type SignInUpRequest struct {
	Email                        string `json:"email"`
	Password                     string `json:"password,omitempty"`
	FirstName                    string `json:"first_name,omitempty"`
	LastName                     string `json:"last_name,omitempty"`
	WorkspaceInviteHash          string `json:"workspace_invite_hash,omitempty"`
	WorkspacePersonalInviteToken string `json:"workspace_personal_invite_token,omitempty"`
}

type SignInUpResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

type ConsentURLResponse struct {
	URL string `json:"url"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type ExchangeCodeRequest struct {
	Code string `json:"code"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthProvidersResponse struct {
	Password  bool `json:"password"`
	Google    bool `json:"google"`
	Microsoft bool `json:"microsoft"`
	SSO       bool `json:"sso"`
}
