package console

import (
	"strings"
	"testing"

	"github.com/bxcodec/faker/v4"
)

func TestPasswordRoundtrip(t *testing.T) {
	password := faker.Password()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash %q isn't PHC formatted", hash)
	}
	if !verifyPassword(password, hash) {
		t.Error("correct password rejected")
	}
	if verifyPassword(password+"x", hash) {
		t.Error("wrong password accepted")
	}
}

func TestHashesAreSalted(t *testing.T) {
	password := faker.Password()
	first, err := hashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	second, err := hashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two hashes of the same password are identical")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, hash := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=1,p=4$short",
		"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
	} {
		if verifyPassword("password", hash) {
			t.Errorf("malformed hash %q verified", hash)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	for _, tc := range []struct {
		username string
		valid    bool
	}{
		{"ab", true},
		{"space_cadet", true},
		{"Dash-42", true},
		{"a", false},
		{strings.Repeat("a", 33), false},
		{"with space", false},
		{"bröther", false},
		{"semi;colon", false},
		{"", false},
	} {
		err := validateUsername(tc.username)
		if tc.valid && err != nil {
			t.Errorf("validateUsername(%q) = %v, want nil", tc.username, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("validateUsername(%q) = nil, want error", tc.username)
		}
	}
}
