package transform

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/bidwire/gate/internal/model"
)

func TestRedactText(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
		want string
	}{
		{
			name: "ShortPhone",
			in:   "call me at 555-1234",
			want: "call me at " + Placeholder,
		},
		{
			name: "FullPhone",
			in:   "my number is (415) 555-9999 thanks",
			want: "my number is " + Placeholder + " thanks",
		},
		{
			name: "CountryCode",
			in:   "+1 415 555 0000",
			want: Placeholder,
		},
		{
			name: "Email",
			in:   "email me: dana@example.com",
			want: "email me: " + Placeholder,
		},
		{
			name: "Handle",
			in:   "DM @dana_builds on the bird app",
			want: "DM " + Placeholder + " on the bird app",
		},
		{
			name: "ServiceMention",
			in:   "reach me on WhatsApp +14155551234",
			want: "reach me on " + Placeholder,
		},
		{
			name: "PlainTextUntouched",
			in:   "the deck is 12 feet wide and needs 40 boards",
			want: "the deck is 12 feet wide and needs 40 boards",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := RedactText(tc.in)
			if got != tc.want {
				t.Errorf("RedactText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRedactText_Idempotent(t *testing.T) {
	inputs := []string{
		"call me at 555-1234 or dana@example.com, or @dana on signal",
		"my number is (415) 555-9999",
		"nothing sensitive here",
	}
	for _, in := range inputs {
		once := RedactText(in)
		twice := RedactText(once)
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestApply_None(t *testing.T) {
	tr := New(NewAliasBook())
	msg := model.Message{Body: "my number is 555-9999", SenderName: "Casey"}

	out, err := tr.Apply(model.TransformNone, msg, "acct-c2")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Body != msg.Body {
		t.Errorf("Body = %q, want unmodified", out.Body)
	}
	if out.SenderName != "Casey" {
		t.Errorf("SenderName = %q, want unmodified", out.SenderName)
	}
}

func TestApply_Redact(t *testing.T) {
	tr := New(NewAliasBook())
	fields, _ := json.Marshal(map[string]any{
		"phone":    "555-1234",
		"budget":   12000,
		"timeline": "3 weeks",
	})
	msg := model.Message{Body: "call me at 555-1234", Fields: fields}

	out, err := tr.Apply(model.TransformRedact, msg, "acct-c1")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if strings.Contains(out.Body, "555-1234") {
		t.Errorf("Body still contains phone number: %q", out.Body)
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal(out.Fields, &got); err != nil {
		t.Fatalf("unmarshal fields: %v", err)
	}
	if string(got["phone"]) != "null" {
		t.Errorf("phone field = %s, want null", got["phone"])
	}
	if string(got["budget"]) != "12000" {
		t.Errorf("budget field = %s, want 12000 (untouched)", got["budget"])
	}

	// Input message must not be mutated.
	if !strings.Contains(msg.Body, "555-1234") {
		t.Error("input message was mutated")
	}
}

func TestApply_RedactMalformedFields(t *testing.T) {
	tr := New(NewAliasBook())
	msg := model.Message{Body: "hi", Fields: json.RawMessage(`{"phone": `)}

	_, err := tr.Apply(model.TransformRedact, msg, "acct-c1")
	if !errors.Is(err, model.ErrTransform) {
		t.Fatalf("err = %v, want ErrTransform", err)
	}
}

func TestApply_Pseudonymize(t *testing.T) {
	tr := New(NewAliasBook())
	msg := model.Message{ProjectID: "proj-1", SenderName: "Dana's Decks LLC", Body: "hello"}

	out, err := tr.Apply(model.TransformPseudonymize, msg, "acct-c1")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.SenderName != "Contractor A" {
		t.Errorf("SenderName = %q, want %q", out.SenderName, "Contractor A")
	}
	if out.Body != "hello" {
		t.Errorf("Body = %q, want untouched", out.Body)
	}
}

func TestAliasBook_StableWithinProject(t *testing.T) {
	book := NewAliasBook()

	a1 := book.Alias("proj-1", "acct-1")
	a2 := book.Alias("proj-1", "acct-2")
	if a1 == a2 {
		t.Errorf("distinct accounts share alias %q", a1)
	}
	if again := book.Alias("proj-1", "acct-1"); again != a1 {
		t.Errorf("alias changed between lookups: %q then %q", a1, again)
	}
}

func TestAliasBook_IndependentAcrossProjects(t *testing.T) {
	book := NewAliasBook()

	// Assign two aliases on proj-1 so acct-2 is "Contractor B" there.
	book.Alias("proj-1", "acct-1")
	p1 := book.Alias("proj-1", "acct-2")

	// On proj-2 the same account is first to arrive: independent assignment.
	p2 := book.Alias("proj-2", "acct-2")
	if p1 != "Contractor B" || p2 != "Contractor A" {
		t.Errorf("got %q on proj-1 and %q on proj-2", p1, p2)
	}
}

func TestAliasBook_Concurrent(t *testing.T) {
	book := NewAliasBook()
	accounts := []string{"acct-1", "acct-2", "acct-3", "acct-4"}

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out := make([]string, len(accounts))
			for j, acct := range accounts {
				out[j] = book.Alias("proj-1", acct)
			}
			results[i] = out
		}(i)
	}
	wg.Wait()

	// Every goroutine must observe the same account→alias mapping.
	for i := 1; i < len(results); i++ {
		for j := range accounts {
			if results[i][j] != results[0][j] {
				t.Fatalf("goroutine %d saw %q for %s, goroutine 0 saw %q",
					i, results[i][j], accounts[j], results[0][j])
			}
		}
	}
}

func TestLetterLabel(t *testing.T) {
	for _, tc := range []struct {
		n    int
		want string
	}{
		{0, "A"}, {1, "B"}, {25, "Z"}, {26, "AA"}, {27, "AB"}, {51, "AZ"}, {52, "BA"},
	} {
		if got := letterLabel(tc.n); got != tc.want {
			t.Errorf("letterLabel(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
