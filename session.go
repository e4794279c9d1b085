package authpage

import "time"

var _ Session = (*SessionObject)(nil)

// SessionObject is a verified session token as seen by handlers
type SessionObject struct {
	UserID         string         `json:"user_id,omitempty"`
	Audience       []string       `json:"audience,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string       { return s.UserID }
func (s *SessionObject) GetAudience() []string   { return s.Audience }
func (s *SessionObject) GetIssuer() string       { return s.Issuer }
func (s *SessionObject) GetIssuedAt() *time.Time { return s.IssuedAt }
func (s *SessionObject) GetData() map[string]any { return s.Data }

// Username returns the name claim captured at login, if any
func (s *SessionObject) Username() string {
	name, _ := s.Data[sessionKeyUsername].(string)
	return name
}

const sessionKeyUsername = "username"

func newSessionFromClaims(claims *JWTClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToDecodeSession
	}

	issuedAt, expiresAt := claims.IssuedAt(), claims.Expires()
	session := &SessionObject{
		UserID:         claims.UserID(),
		Audience:       append([]string(nil), claims.Audience...),
		Issuer:         claims.Issuer,
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
		Data:           map[string]any{},
	}
	if claims.Name != "" {
		session.Data[sessionKeyUsername] = claims.Name
	}
	return session, nil
}
