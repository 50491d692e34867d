package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("", ""))
}

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		pw, err := GeneratePassword(0)
		require.NoError(t, err)
		assert.Len(t, pw, GeneratedPasswordLength)
		for _, r := range pw {
			assert.Contains(t, passwordAlphabet, string(r))
		}
		seen[pw] = true
	}
	assert.Greater(t, len(seen), 1)

	pw, err := GeneratePassword(12)
	require.NoError(t, err)
	assert.Len(t, pw, 12)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: "s3cret", SessionExp: time.Hour, TokenIssuer: "unidesk"})
	id := &Identity{Kind: KindVoter, ID: 42, RegNo: "2022/BCS/001", IsStaff: true}

	token, expires, err := svc.GenerateToken(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, KindVoter, claims.Kind)
	assert.Equal(t, "2022/BCS/001", claims.RegNo)
	assert.True(t, claims.IsStaff)
	assert.Equal(t, "unidesk", claims.Issuer)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: "s3cret", SessionExp: time.Hour})
	other := NewJWTService(JWTConfig{SecretKey: "different", SessionExp: time.Hour})

	foreign, _, err := other.GenerateToken(&Identity{Kind: KindStudent, ID: 1})
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: 1, Kind: KindStudent,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	expiredToken, err := expired.SignedString([]byte("s3cret"))
	require.NoError(t, err)

	noKind := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: 1})
	noKindToken, err := noKind.SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrInvalidToken},
		{"garbage", "not.a.token", ErrInvalidToken},
		{"wrong key", foreign, ErrInvalidToken},
		{"expired", expiredToken, ErrExpiredToken},
		{"missing kind", noKindToken, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	miss := BackendFunc(func(context.Context, Credentials) (*Identity, error) { return nil, nil })
	hit := BackendFunc(func(_ context.Context, c Credentials) (*Identity, error) {
		return &Identity{Kind: KindVoter, ID: 7, RegNo: c.Identifier}, nil
	})
	boom := errors.New("db down")
	broken := BackendFunc(func(context.Context, Credentials) (*Identity, error) { return nil, boom })

	id, err := Chain{miss, hit}.Authenticate(ctx, Credentials{Identifier: "R1"})
	require.NoError(t, err)
	assert.Equal(t, "R1", id.RegNo)

	_, err = Chain{miss, miss}.Authenticate(ctx, Credentials{})
	assert.ErrorIs(t, err, ErrNoIdentity)

	_, err = Chain{broken, hit}.Authenticate(ctx, Credentials{})
	assert.ErrorIs(t, err, boom)
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, IdentityFrom(ctx))
	var none *Identity
	assert.Equal(t, "system", none.Actor())

	id := &Identity{Kind: KindStudent, ID: 3, RegNo: "2021/BCS/009"}
	ctx = WithIdentity(ctx, id)
	assert.Same(t, id, IdentityFrom(ctx))
	assert.Equal(t, "2021/BCS/009", IdentityFrom(ctx).Actor())
}
