package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bookstore/internal/platform/crypto"
	"bookstore/internal/platform/validation"
	"bookstore/internal/token"
	"bookstore/internal/user"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fixedHasher produces deterministic hashes so tests can assert on them.
type fixedHasher struct{}

func (fixedHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fixedHasher) Verify(hash, plain string) bool    { return hash == "hashed:"+plain }

type fixture struct {
	svc    *Service
	users  *user.MemoryRepo
	tokens *token.MemoryRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	users := user.NewMemoryRepo()
	tokens := token.NewMemoryRepo()
	return fixture{
		svc:    NewService(users, tokens, fixedHasher{}, crypto.NewJWTIssuer(testSecret), nil),
		users:  users,
		tokens: tokens,
	}
}

var thomas = RegisterInput{Name: "Thomas", Email: "t@example.com", Password: "motdepasse123"}

func TestService_RegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, thomas)
	require.NoError(t, err)
	assert.Equal(t, "t@example.com", registered.User.Email)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "hashed:motdepasse123", registered.User.PasswordHash, "password stored only as hash")

	loggedIn, err := f.svc.Login(ctx, LoginInput{Email: "t@example.com", Password: "motdepasse123"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)
	assert.NotEqual(t, registered.Token, loggedIn.Token)

	for _, tok := range []string{registered.Token, loggedIn.Token} {
		userID, _, err := f.svc.Authenticate(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, userID)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{name: "missing name", in: RegisterInput{Email: "a@example.com", Password: "longenough"}, field: "name"},
		{name: "name too long", in: RegisterInput{Name: strings.Repeat("n", 256), Email: "a@example.com", Password: "longenough"}, field: "name"},
		{name: "bad email", in: RegisterInput{Name: "A", Email: "not-an-email", Password: "longenough"}, field: "email"},
		{name: "short password", in: RegisterInput{Name: "A", Email: "a@example.com", Password: "short"}, field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.Register(context.Background(), tt.in)

			verr, ok := validation.As(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.True(t, verr.Has(tt.field))
		})
	}
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, thomas)
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "Other", Email: thomas.Email, Password: "anotherpass"})

	verr, ok := validation.As(err)
	require.True(t, ok)
	assert.True(t, verr.Has("email"))
}

func TestService_RegisterStorageRaceMapsToValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	users := user.NewMockRepository(ctrl)
	svc := NewService(users, token.NewMemoryRepo(), fixedHasher{}, crypto.NewJWTIssuer(testSecret), nil)

	users.EXPECT().ExistsByEmail(gomock.Any(), thomas.Email).Return(false, nil)
	users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(user.ErrEmailTaken)

	_, err := svc.Register(context.Background(), thomas)

	verr, ok := validation.As(err)
	require.True(t, ok)
	assert.True(t, verr.Has("email"))
}

// brokenTokens fails every token write.
type brokenTokens struct {
	token.Repository
}

func (brokenTokens) Create(context.Context, *token.AccessToken) error {
	return errors.New("connection reset")
}

func TestService_RegisterRemovesUserWhenTokenFails(t *testing.T) {
	users := user.NewMemoryRepo()
	ctx := context.Background()

	failing := NewService(users, brokenTokens{}, fixedHasher{}, crypto.NewJWTIssuer(testSecret), nil)
	_, err := failing.Register(ctx, thomas)
	require.Error(t, err)
	_, ok := validation.As(err)
	assert.False(t, ok)

	exists, err := users.ExistsByEmail(ctx, thomas.Email)
	require.NoError(t, err)
	assert.False(t, exists, "no half-registered account is left behind")

	working := NewService(users, token.NewMemoryRepo(), fixedHasher{}, crypto.NewJWTIssuer(testSecret), nil)
	_, err = working.Register(ctx, thomas)
	assert.NoError(t, err)
}

func TestService_LoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, thomas)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, LoginInput{Email: thomas.Email, Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "motdepasse123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginInput{})
	verr, ok := validation.As(err)
	require.True(t, ok)
	assert.True(t, verr.Has("email"))
	assert.True(t, verr.Has("password"))
}

func TestService_LoginRepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	users := user.NewMockRepository(ctrl)
	svc := NewService(users, token.NewMemoryRepo(), fixedHasher{}, crypto.NewJWTIssuer(testSecret), nil)

	users.EXPECT().GetByEmail(gomock.Any(), "t@example.com").Return(user.User{}, errors.New("connection reset"))

	_, err := svc.Login(context.Background(), LoginInput{Email: "t@example.com", Password: "motdepasse123"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_LogoutRevokesOnlyPresentedToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Register(ctx, thomas)
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, LoginInput{Email: thomas.Email, Password: thomas.Password})
	require.NoError(t, err)

	_, firstID, err := f.svc.Authenticate(ctx, first.Token)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, firstID))

	_, _, err = f.svc.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = f.svc.Authenticate(ctx, second.Token)
	assert.NoError(t, err)

	assert.ErrorIs(t, f.svc.Logout(ctx, firstID), ErrUnauthorized)
}

func TestService_AuthenticateRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, thomas)
	require.NoError(t, err)

	otherIssuer := crypto.NewJWTIssuer("another-secret-another-secret-000")
	forged, forgedID, err := otherIssuer.Issue(reg.User.ID)
	require.NoError(t, err)
	require.NoError(t, f.tokens.Create(ctx, &token.AccessToken{ID: forgedID, UserID: reg.User.ID}))

	unstored, _, err := crypto.NewJWTIssuer(testSecret).Issue(reg.User.ID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		bearer string
	}{
		{name: "garbage", bearer: "not-a-token"},
		{name: "wrong signature", bearer: forged},
		{name: "never stored", bearer: unstored},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Authenticate(ctx, tt.bearer)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestService_AuthenticateTouchesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, thomas)
	require.NoError(t, err)

	_, tokenID, err := f.svc.Authenticate(ctx, reg.Token)
	require.NoError(t, err)

	record, err := f.tokens.Get(ctx, tokenID)
	require.NoError(t, err)
	assert.NotNil(t, record.LastUsedAt)
}
