package model

import "testing"

func TestUserHasRefreshToken(t *testing.T) {
	u := User{RefreshTokens: []string{"a", "b"}}
	if !u.HasRefreshToken("b") {
		t.Fatalf("expected token b to be tracked")
	}
	if u.HasRefreshToken("c") {
		t.Fatalf("token c is not tracked")
	}
	if (User{}).HasRefreshToken("") {
		t.Fatalf("empty set tracks nothing")
	}
}
