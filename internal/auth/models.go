package auth

// DevAuthRequest is the optional body of POST /v1/auth/dev.
type DevAuthRequest struct {
	UserID string `json:"user_id"`
}

// DevAuthResponse is returned by dev sign-in.
type DevAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      string `json:"user_id"`
}
