package sessionsvc_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/ngundang/internal/svc/sessionsvc"
)

func TestSession_Submit(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		address string
		secret  string
		want    sessionsvc.Credentials
	}{
		{
			name:    "as is",
			address: "me@example.com",
			secret:  "apppassword",
			want:    sessionsvc.Credentials{Address: "me@example.com", Secret: "apppassword"},
		},
		{
			name:    "embedded spaces",
			address: "me@example.com",
			secret:  "ab cd ef",
			want:    sessionsvc.Credentials{Address: "me@example.com", Secret: "abcdef"},
		},
		{
			name:    "leading trailing and other whitespace",
			address: "  me@example.com\t",
			secret:  "\tab\ncd ef  ",
			want:    sessionsvc.Credentials{Address: "me@example.com", Secret: "abcdef"},
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			session := sessionsvc.NewSession(nil)
			assert.Equal(t, sessionsvc.StateUnauthenticated, session.State())

			require.NoError(t, session.Submit(ctx, c.address, c.secret))
			assert.Equal(t, sessionsvc.StateAuthenticated, session.State())
			assert.True(t, session.Authenticated())

			creds, err := session.Current()
			require.NoError(t, err)
			assert.Equal(t, c.want, creds)
			assert.Equal(t, c.want.Address, session.Address())
		})
	}
}

func TestSession_SubmitIncomplete(t *testing.T) {
	ctx := context.Background()

	inputs := [][2]string{
		{"", ""},
		{"", "secret"},
		{"me@example.com", ""},
		{"   ", "secret"},
		{"me@example.com", " \t \n "},
	}

	for _, in := range inputs {
		in := in
		t.Run(fmt.Sprintf("%q/%q", in[0], in[1]), func(t *testing.T) {
			session := sessionsvc.NewSession(nil)

			err := session.Submit(ctx, in[0], in[1])
			assert.ErrorIs(t, err, sessionsvc.ErrIncompleteCredentials)
			assert.Equal(t, sessionsvc.StateUnauthenticated, session.State())

			_, err = session.Current()
			assert.ErrorIs(t, err, sessionsvc.ErrNotAuthenticated)
		})
	}

	t.Run("clears previous credentials", func(t *testing.T) {
		session := sessionsvc.NewSession(nil)
		require.NoError(t, session.Submit(ctx, "me@example.com", "secret"))

		assert.ErrorIs(t, session.Submit(ctx, "me@example.com", " "), sessionsvc.ErrIncompleteCredentials)
		assert.False(t, session.Authenticated())
	})
}

func TestSession_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("authenticated", func(t *testing.T) {
		session := sessionsvc.NewSession(nil)
		require.NoError(t, session.Submit(ctx, "me@example.com", "secret"))

		session.Logout()
		_, err := session.Current()
		assert.ErrorIs(t, err, sessionsvc.ErrNotAuthenticated)
		assert.Equal(t, "", session.Address())
	})

	t.Run("idempotent", func(t *testing.T) {
		session := sessionsvc.NewSession(nil)
		session.Logout()
		session.Logout()

		_, err := session.Current()
		assert.ErrorIs(t, err, sessionsvc.ErrNotAuthenticated)
		assert.Equal(t, sessionsvc.StateUnauthenticated, session.State())
	})
}

func TestSession_Verifier(t *testing.T) {
	ctx := context.Background()

	var verified []sessionsvc.Credentials
	verifier := sessionsvc.VerifierFunc(func(ctx context.Context, creds sessionsvc.Credentials) error {
		verified = append(verified, creds)
		if creds.Secret != "good" {
			return errors.New("535 5.7.8 Username and Password not accepted")
		}
		return nil
	})

	session := sessionsvc.NewSession(verifier)

	err := session.Submit(ctx, "me@example.com", "bad")
	assert.ErrorIs(t, err, sessionsvc.ErrAuthenticationRejected)
	assert.Contains(t, err.Error(), "535 5.7.8")
	assert.False(t, session.Authenticated())

	require.NoError(t, session.Submit(ctx, "me@example.com", "go od"))
	assert.True(t, session.Authenticated())

	// verifier sees normalized credentials, and is not called for incomplete input
	assert.ErrorIs(t, session.Submit(ctx, "", "good"), sessionsvc.ErrIncompleteCredentials)
	assert.Equal(t, []sessionsvc.Credentials{
		{Address: "me@example.com", Secret: "bad"},
		{Address: "me@example.com", Secret: "good"},
	}, verified)
}

func TestCredentials_Redacted(t *testing.T) {
	creds := sessionsvc.Credentials{Address: "me@example.com", Secret: "apppassword"}

	assert.NotContains(t, creds.String(), "apppassword")
	assert.NotContains(t, fmt.Sprintf("%v", creds), "apppassword")
	assert.NotContains(t, fmt.Sprintf("%+v", creds), "apppassword")
	assert.NotContains(t, fmt.Sprintf("%#v", creds), "apppassword")
	assert.Contains(t, creds.String(), "me@example.com")

	b, err := json.Marshal(creds)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "apppassword")
	assert.Contains(t, string(b), "me@example.com")
}

func TestSession_Concurrent(t *testing.T) {
	ctx := context.Background()
	session := sessionsvc.NewSession(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = session.Submit(ctx, "me@example.com", "secret")
		}()

		go func() {
			defer wg.Done()
			creds, err := session.Current()
			if err == nil {
				// never partially set
				assert.Equal(t, "me@example.com", creds.Address)
				assert.Equal(t, "secret", creds.Secret)
			}
		}()
	}

	wg.Wait()
	assert.True(t, session.Authenticated())
}
