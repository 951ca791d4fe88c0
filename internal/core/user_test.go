package core_test

import (
	"testing"

	"storefront-console/internal/core"

	"golang.org/x/crypto/bcrypt"
)

func TestUserCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("generate hash: %v", err)
	}
	u := &core.User{Username: "admin", PasswordHash: string(hash)}

	if !u.CheckPassword("correct horse") {
		t.Error("correct password rejected")
	}
	if u.CheckPassword("battery staple") {
		t.Error("wrong password accepted")
	}
	if u.CheckPassword("") {
		t.Error("empty password accepted")
	}
}
