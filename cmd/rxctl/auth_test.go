package main

import (
	"testing"
	"time"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	auth := newBearerAuth("test-secret")
	tok, err := auth.issue("operator", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	subject, err := auth.verify(tok)
	if err != nil {
		t.Fatal(err)
	}
	if subject != "operator" {
		t.Fatalf("subject = %q, want operator", subject)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	auth := newBearerAuth("test-secret")
	tok, err := auth.issue("operator", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.verify(tok); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := newBearerAuth("secret-a")
	verifier := newBearerAuth("secret-b")
	tok, err := issuer.issue("operator", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.verify(tok); err == nil {
		t.Fatalf("expected token signed with a different secret to be rejected")
	}
}
