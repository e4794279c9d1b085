package authpage

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
)

// Auther logs users in and registers them, issuing session tokens
type Auther struct {
	provider IdentityProvider
	register command.Commander[RegisterUserMessage]
	tokens   TokenService
	logger   Logger
	activity ActivitySink
	hashids  bool
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo Users, opts Config) *Auther {
	logger := defaultLogger()
	return &Auther{
		provider: NewUserProvider(repo).WithLogger(logger),
		register: NewRegisterUserHandler(repo),
		tokens: NewTokenService(
			[]byte(opts.GetSigningKey()),
			opts.GetTokenExpiration(),
			opts.GetIssuer(),
			jwt.ClaimStrings(opts.GetAudience()),
			logger,
		),
		logger:   logger,
		activity: normalizeActivitySink(nil),
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger == nil {
		return s
	}
	s.logger = logger
	if p, ok := s.provider.(*UserProvider); ok {
		p.WithLogger(logger)
	}
	if ts, ok := s.tokens.(*TokenServiceImpl); ok {
		ts.logger = logger
	}
	return s
}

// WithIdentityProvider replaces the provider used by Login
func (s *Auther) WithIdentityProvider(provider IdentityProvider) *Auther {
	if provider != nil {
		s.provider = provider
	}
	return s
}

// WithRegisterCommand replaces the command Register dispatches. It must
// store the created user in the command.Result[*User] found in its context.
func (s *Auther) WithRegisterCommand(cmd command.Commander[RegisterUserMessage]) *Auther {
	if cmd != nil {
		s.register = cmd
	}
	return s
}

// WithActivitySink records login and register outcomes to sink
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activity = normalizeActivitySink(sink)
	return s
}

// WithHashids derives new user IDs from their email
func (s *Auther) WithHashids(enabled bool) *Auther {
	s.hashids = enabled
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("login verify identity error", "identifier", identifier, "error", err)
		s.record(ctx, ActivityEventLoginFailure, "", identifier, err)
		return "", err
	}

	if identity == nil || identity.ID() == "" {
		s.logger.Error("login identity is nil or zero value", "identifier", identifier)
		s.record(ctx, ActivityEventLoginFailure, "", identifier, ErrIdentityNotFound)
		return "", ErrIdentityNotFound
	}

	token, err := s.tokens.Generate(identity)
	if err != nil {
		return "", err
	}

	s.record(ctx, ActivityEventLoginSuccess, identity.ID(), identifier, nil)
	return token, nil
}

// Register creates the account and returns a token for it
func (s *Auther) Register(ctx context.Context, email, username, password string) (string, error) {
	result := command.NewResult[*User]()
	err := s.register.Execute(command.ContextWithResult(ctx, result), RegisterUserMessage{
		Email:     email,
		Username:  username,
		Password:  password,
		UseHashid: s.hashids,
	})
	if err != nil {
		s.logger.Error("register user error", "username", username, "error", err)
		s.record(ctx, ActivityEventRegisterFailure, "", username, err)
		return "", err
	}

	user, ok := result.Load()
	if !ok || user == nil {
		s.logger.Error("register user stored no record", "username", username)
		return "", errors.New("registration produced no user", errors.CategoryInternal).
			WithCode(errors.CodeInternal)
	}

	s.logger.Info("registered user", "user_id", user.ID.String(), "username", user.Username)
	s.record(ctx, ActivityEventRegisterSuccess, user.ID.String(), user.Username, nil)

	return s.tokens.Generate(NewIdentityFromUser(user))
}

// Authenticate routes the credentials by page context: login verifies,
// register creates. The other contexts do not authenticate.
func (s *Auther) Authenticate(ctx context.Context, email, username, password string, pageContext PageContext) (string, error) {
	switch pageContext {
	case ContextLogin:
		return s.Login(ctx, username, password)
	case ContextRegister:
		return s.Register(ctx, email, username, password)
	}
	return "", withSource(ErrUnsupportedPageContext, nil).
		WithMetadata(map[string]any{"page_context": pageContext.String()})
}

func (s *Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokens.Validate(raw)
	if err != nil {
		s.logger.Debug("session from token validation failed", "error", err)
		return nil, err
	}

	return newSessionFromClaims(claims)
}

func (s *Auther) record(ctx context.Context, eventType ActivityEventType, userID, identifier string, cause error) {
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Identifier: identifier,
		OccurredAt: time.Now(),
	}
	if cause != nil {
		event.Metadata = map[string]any{"error": cause.Error()}
	}

	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record failed", "event", string(eventType), "error", err)
	}
}
