package auth

import "testing"

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := NewService("secret")
	tok, err := svc.Issue("u1", "u1@example.com", "author")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := svc.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Subject != "u1" || id.Email != "u1@example.com" || id.Role != "author" {
		t.Fatalf("identity = %+v", id)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := NewService("secret-a").Issue("u1", "", "author")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewService("secret-b").Verify(tok); err == nil {
		t.Fatal("token signed with another secret verified")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := NewService("secret").Verify("not.a.token"); err == nil {
		t.Fatal("garbage token verified")
	}
}
