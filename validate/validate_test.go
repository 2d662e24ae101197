package validate

import "testing"

func TestCheckID(t *testing.T) {
	good := []string{"64f1a2b3c4d5e6f7a8b9c0d1", GenerateID(), "course42"}
	for _, id := range good {
		if err := CheckID(id); err != nil {
			t.Fatalf("CheckID(%q): %v", id, err)
		}
	}

	bad := []string{"", "../etc/passwd", "a b"}
	for _, id := range bad {
		if err := CheckID(id); err == nil {
			t.Fatalf("CheckID(%q): expected error", id)
		}
	}
}

func TestCheckURL(t *testing.T) {
	if err := CheckURL("https://checkout.stripe.com/c/pay/cs_test_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckURL("not a url"); err == nil {
		t.Fatalf("expected error for malformed url")
	}
}

func TestCheck(t *testing.T) {
	type login struct {
		Token string `validate:"required"`
	}
	if err := Check(login{}); err == nil {
		t.Fatalf("expected error for missing token")
	}
	if err := Check(login{Token: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
