package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gamelog/db/dbtest"
	"gamelog/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type memRevoker map[string]time.Time

func (m memRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	m[id] = until
	return nil
}

func (m memRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := m[id]
	return ok, nil
}

func newTestService(t *testing.T) (*Service, memRevoker) {
	t.Helper()
	rev := memRevoker{}
	return newService(dbtest.New(t), NewTokenManager("test-secret", time.Hour), rev, bcrypt.MinCost), rev
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, models.RegisterInput{Username: "link", Email: "Link@Hyrule.io", Password: "triforce"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.Token == "" || sess.User.ID == 0 {
		t.Fatalf("bad session: %+v", sess)
	}
	if sess.User.Email != "link@hyrule.io" {
		t.Errorf("email not normalized: %q", sess.User.Email)
	}
	if sess.User.PasswordHash == "triforce" || !strings.HasPrefix(sess.User.PasswordHash, "$2") {
		t.Errorf("password stored in clear")
	}

	for _, ident := range []string{"link", "LINK@hyrule.io"} {
		got, err := svc.Login(ctx, ident, "triforce")
		if err != nil {
			t.Fatalf("login as %q: %v", ident, err)
		}
		id, err := svc.Authenticate(ctx, got.Token)
		if err != nil {
			t.Fatalf("authenticate: %v", err)
		}
		if id.UserID != sess.User.ID || id.Username != "link" {
			t.Errorf("identity = %+v", id)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, models.RegisterInput{Username: "zelda", Email: "z@hyrule.io", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(ctx, models.RegisterInput{Username: "zelda", Email: "other@hyrule.io", Password: "secret1"})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate username: %v", err)
	}
	_, err = svc.Register(ctx, models.RegisterInput{Username: "other", Email: "Z@hyrule.io", Password: "secret1"})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate email: %v", err)
	}
}

func TestLoginFailuresLookAlike(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	svc.Register(ctx, models.RegisterInput{Username: "samus", Email: "s@zebes.io", Password: "varia-suit"})

	_, wrongPass := svc.Login(ctx, "samus", "nope")
	_, unknown := svc.Login(ctx, "ridley", "nope")
	if !errors.Is(wrongPass, ErrInvalidCredentials) || !errors.Is(unknown, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v, unknown user: %v", wrongPass, unknown)
	}
	if wrongPass.Error() != unknown.Error() {
		t.Errorf("messages differ: %q vs %q", wrongPass, unknown)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, rev := newTestService(t)
	ctx := context.Background()

	sess, _ := svc.Register(ctx, models.RegisterInput{Username: "kirby", Email: "k@dream.land", Password: "poyopoyo"})
	id, err := svc.Authenticate(ctx, sess.Token)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, ok := rev[id.TokenID]; !ok {
		t.Fatal("token id not recorded")
	}
	if _, err := svc.Authenticate(ctx, sess.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("revoked token accepted: %v", err)
	}
}

func TestTokenRejections(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, err := tm.Issue(7, "mario")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewTokenManager("other", time.Hour).Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign signature accepted: %v", err)
	}

	expired := NewTokenManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Issue(7, "mario")
	if _, err := tm.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token accepted: %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "7", "exp": time.Now().Add(time.Hour).Unix()})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := tm.Parse(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("alg none accepted: %v", err)
	}

	id, err := tm.Parse(token)
	if err != nil {
		t.Fatal(err)
	}
	if id.UserID != 7 || id.TokenID == "" || id.ExpiresAt.IsZero() {
		t.Errorf("identity = %+v", id)
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Fatal("empty context has identity")
	}
	ctx := WithIdentity(context.Background(), Identity{UserID: 3})
	if id, ok := IdentityFrom(ctx); !ok || id.UserID != 3 {
		t.Errorf("got %+v %v", id, ok)
	}
}
