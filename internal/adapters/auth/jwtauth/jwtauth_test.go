package jwtauth

import (
	"testing"
	"time"

	perr "marketfeed/internal/platform/errors"
	pnet "marketfeed/internal/platform/net"
	"marketfeed/internal/platform/testkit"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifyRoundTrip(t *testing.T) {
	t.Parallel()
	v := New(Config{Secret: "s3cret", Issuer: "users", AdminRole: "admin"})

	cases := []pnet.Principal{
		{UserID: "seller-1"},
		{UserID: "ops", Admin: true},
	}
	for _, want := range cases {
		tok, err := v.Sign(want, time.Minute)
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		got, err := v.Verify(tok)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if got != want {
			t.Fatalf("principal = %+v want %+v", got, want)
		}
	}
}

func TestVerifyRejects(t *testing.T) {
	t.Parallel()
	v := New(Config{Secret: "s3cret", Issuer: "users", AdminRole: "admin"})
	other := New(Config{Secret: "other", Issuer: "users", AdminRole: "admin"})
	wrongIss := New(Config{Secret: "s3cret", Issuer: "elsewhere", AdminRole: "admin"})

	expired, _ := v.Sign(pnet.Principal{UserID: "u"}, -time.Hour)
	forged, _ := other.Sign(pnet.Principal{UserID: "u"}, time.Minute)
	iss, _ := wrongIss.Sign(pnet.Principal{UserID: "u"}, time.Minute)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "u"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Minute).Unix(), "iss": "users",
	}).SignedString([]byte("s3cret"))

	cases := []struct {
		name, tok, msg string
	}{
		{"expired", expired, "expired"},
		{"bad signature", forged, "invalid"},
		{"wrong issuer", iss, "invalid"},
		{"alg none", none, "invalid"},
		{"garbage", "abc.def", "invalid"},
		{"no subject", noSub, "subject"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := v.Verify(tc.tok)
			if perr.CodeOf(err) != perr.ErrorCodeUnauthorized {
				t.Fatalf("code = %v (%v)", perr.CodeOf(err), err)
			}
			testkit.MustContain(t, err.Error(), tc.msg)
		})
	}
}

func TestNewPanicsWithoutSecret(t *testing.T) {
	t.Parallel()
	testkit.MustPanic(t, func() { New(Config{}) })
}
