package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	raw, err := m.Issue("player-1", "char-1")
	require.NoError(t, err)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "player-1", claims.Subject)
	require.Equal(t, "char-1", claims.CharacterID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	raw, err := NewTokenManager("secret", time.Hour).Issue("player-1", "")
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Parse(raw)
	require.True(t, xerrors.HasCode(err, xerrors.CodeInvalidToken))
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := m.Issue("player-1", "")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(raw)
	require.True(t, xerrors.HasCode(err, xerrors.CodeTokenExpired))
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := NewTokenManager("secret", time.Hour).Parse("")
	require.True(t, xerrors.HasCode(err, xerrors.CodeInvalidToken))
}
