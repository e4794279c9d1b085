package authpage_test

import (
	"context"
	"errors"
	"testing"

	authpage "github.com/goliatone/go-authpage"
	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestIdentity is a simple implementation of Identity interface for testing
type TestIdentity struct {
	id       string
	username string
	email    string
}

func (t TestIdentity) ID() string       { return t.id }
func (t TestIdentity) Username() string { return t.username }
func (t TestIdentity) Email() string    { return t.email }

// MockIdentityProvider implements authpage.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (authpage.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(authpage.Identity)
	return identity, args.Error(1)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful login", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		auther := authpage.NewAuthenticator(new(MockUsers), newTestConfig()).
			WithIdentityProvider(provider).
			WithLogger(&recordingLogger{})

		identity := TestIdentity{id: "0b4c1a7e-2f4e-4b1e-8c0a-6a3f2d9c1e55", username: "jo"}
		provider.On("VerifyIdentity", ctx, "jo", "pw").Return(identity, nil).Once()

		token, err := auther.Login(ctx, "jo", "pw")
		require.NoError(t, err)

		claims, err := auther.TokenService().Validate(token)
		require.NoError(t, err)
		assert.Equal(t, identity.id, claims.UserID())
		assert.Equal(t, "jo", claims.Name)

		provider.AssertExpectations(t)
	})

	t.Run("Bad credentials", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		auther := authpage.NewAuthenticator(new(MockUsers), newTestConfig()).
			WithIdentityProvider(provider).
			WithLogger(&recordingLogger{})

		provider.On("VerifyIdentity", ctx, "jo", "nope").Return(nil, authpage.ErrMismatchedHashAndPassword).Once()

		token, err := auther.Login(ctx, "jo", "nope")
		assert.ErrorIs(t, err, authpage.ErrMismatchedHashAndPassword)
		assert.Empty(t, token)
	})

	t.Run("Zero identity", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		auther := authpage.NewAuthenticator(new(MockUsers), newTestConfig()).
			WithIdentityProvider(provider).
			WithLogger(&recordingLogger{})

		provider.On("VerifyIdentity", ctx, "jo", "pw").Return(TestIdentity{}, nil).Once()

		_, err := auther.Login(ctx, "jo", "pw")
		assert.ErrorIs(t, err, authpage.ErrIdentityNotFound)
	})
}

func TestAuthenticate_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("login uses the username", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		auther := authpage.NewAuthenticator(new(MockUsers), newTestConfig()).
			WithIdentityProvider(provider).
			WithLogger(&recordingLogger{})

		provider.On("VerifyIdentity", ctx, "jo", "pw").
			Return(TestIdentity{id: "id-1", username: "jo"}, nil).Once()

		token, err := auther.Authenticate(ctx, "ignored@example.com", "jo", "pw", authpage.ContextLogin)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		provider.AssertExpectations(t)
	})

	t.Run("contexts without auth semantics", func(t *testing.T) {
		auther := authpage.NewAuthenticator(new(MockUsers), newTestConfig()).WithLogger(&recordingLogger{})

		for _, pc := range []authpage.PageContext{authpage.ContextNotes, authpage.ContextTwitters, authpage.ContextArticles} {
			_, err := auther.Authenticate(ctx, "", "jo", "pw", pc)
			assert.ErrorIs(t, err, authpage.ErrUnsupportedPageContext, pc.String())

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, pc.String(), richErr.Metadata["page_context"])
		}
	})

	t.Run("register failure is returned", func(t *testing.T) {
		store := new(MockUsers)
		auther := authpage.NewAuthenticator(store, newTestConfig()).WithLogger(&recordingLogger{})

		store.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

		_, err := auther.Authenticate(ctx, "jo@example.com", "jo", "pw", authpage.ContextRegister)
		assert.ErrorContains(t, err, "db down")
		assert.True(t, goerrors.IsInternal(err))
	})
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	repo := authpage.NewUsersRepository(newTestDB(t))
	auther := authpage.NewAuthenticator(repo, newTestConfig()).WithLogger(&recordingLogger{})

	token, err := auther.Authenticate(ctx, "jo@example.com", "jo", "hunter2", authpage.ContextRegister)
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	user, err := repo.GetByIdentifier(ctx, "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), session.GetUserID())
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	token, err = auther.Authenticate(ctx, "", "jo", "hunter2", authpage.ContextLogin)
	require.NoError(t, err)

	session, err = auther.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), session.GetUserID())

	_, err = auther.Authenticate(ctx, "", "jo", "wrong", authpage.ContextLogin)
	assert.ErrorIs(t, err, authpage.ErrMismatchedHashAndPassword)

	_, err = auther.Authenticate(ctx, "jo@example.com", "jo", "hunter2", authpage.ContextRegister)
	assert.ErrorIs(t, err, authpage.ErrUserExists)
}

func TestRegister_WithHashids(t *testing.T) {
	ctx := context.Background()
	repo := authpage.NewUsersRepository(newTestDB(t))
	auther := authpage.NewAuthenticator(repo, newTestConfig()).
		WithLogger(&recordingLogger{}).
		WithHashids(true)

	token, err := auther.Register(ctx, "jo@example.com", "jo", "pw")
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	user, err := repo.GetByID(ctx, session.GetUserID())
	require.NoError(t, err)
	assert.Equal(t, "jo", user.Username)

	expected, err := hashid.NewUUID("jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, expected, user.ID)
}

func TestRegister_CustomCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("stored user is tokenized", func(t *testing.T) {
		var got authpage.RegisterUserMessage
		cmd := command.CommandFunc[authpage.RegisterUserMessage](func(ctx context.Context, msg authpage.RegisterUserMessage) error {
			got = msg
			command.ResultFromContext[*authpage.User](ctx).Store(&authpage.User{
				ID:       uuid.MustParse("0b4c1a7e-2f4e-4b1e-8c0a-6a3f2d9c1e55"),
				Username: msg.Username,
				Email:    msg.Email,
			})
			return nil
		})

		auther := authpage.NewAuthenticator(new(MockUsers), newTestConfig()).
			WithLogger(&recordingLogger{}).
			WithRegisterCommand(cmd)

		token, err := auther.Register(ctx, "jo@example.com", "jo", "pw")
		require.NoError(t, err)
		assert.Equal(t, "pw", got.Password)

		session, err := auther.SessionFromToken(token)
		require.NoError(t, err)
		assert.Equal(t, "0b4c1a7e-2f4e-4b1e-8c0a-6a3f2d9c1e55", session.GetUserID())
	})

	t.Run("missing result is an internal error", func(t *testing.T) {
		cmd := command.CommandFunc[authpage.RegisterUserMessage](func(context.Context, authpage.RegisterUserMessage) error {
			return nil
		})

		auther := authpage.NewAuthenticator(new(MockUsers), newTestConfig()).
			WithLogger(&recordingLogger{}).
			WithRegisterCommand(cmd)

		token, err := auther.Register(ctx, "jo@example.com", "jo", "pw")
		assert.Empty(t, token)
		assert.True(t, goerrors.IsInternal(err))
	})
}
