package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestParseJWTRoundTrip(t *testing.T) {
	tok, err := GenerateJWT("user_abc", Claims{Email: "a@example.com", Name: "A", ImageURL: "https://img/a.png"}, "s3cret", "issuer", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	claims, err := ParseJWT(tok, "s3cret", "issuer")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.Subject != "user_abc" || claims.Email != "a@example.com" || claims.ImageURL != "https://img/a.png" {
		t.Fatalf("claims = %+v", claims)
	}
	// 未配置 issuer 时不校验
	if _, err := ParseJWT(tok, "s3cret", ""); err != nil {
		t.Fatalf("ParseJWT without issuer: %v", err)
	}
}

func TestParseJWTRejects(t *testing.T) {
	noSubject, _ := GenerateJWT("", Claims{}, "s3cret", "", time.Hour)
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user_abc"},
	}).SignedString([]byte("s3cret"))
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user_abc", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("s3cret"))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"no subject", noSubject},
		{"no expiry", noExpiry},
		{"wrong algorithm", wrongAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJWT(tt.token, "s3cret", ""); err == nil {
				t.Fatalf("ParseJWT(%s) succeeded", tt.name)
			}
		})
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 50},
		{"abc", 50},
		{"-3", 50},
		{"10", 10},
		{"900", 500},
	}
	for _, tt := range tests {
		if got := ParseLimit(tt.in, 50, 500); got != tt.want {
			t.Fatalf("ParseLimit(%q) = %d want %d", tt.in, got, tt.want)
		}
	}
}
