package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskboard/pkg/models"
	"taskboard/pkg/taskerr"
)

const secret = "test-secret"

func TestMintAndParseToken(t *testing.T) {
	user := models.User{ID: 7, Username: "alice"}

	token, err := MintToken(user, secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, uint(7), claims.UserID)
	require.Equal(t, "alice", claims.Username)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := MintToken(models.User{ID: 7, Username: "alice"}, secret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := MintToken(models.User{ID: 7, Username: "alice"}, secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, secret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken("not.a.token", secret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCurrentUser(t *testing.T) {
	_, err := CurrentUser(context.Background())
	require.ErrorIs(t, err, taskerr.ErrUnauthenticated)

	ctx := WithUser(context.Background(), models.User{ID: 3, Username: "carol"})
	user, err := CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, uint(3), user.ID)
}
