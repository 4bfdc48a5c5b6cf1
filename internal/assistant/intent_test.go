package assistant

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and trim", "  Go To HOME ", "go to home"},
		{"already normal", "go to home", "go to home"},
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"interior spacing preserved", "go  to  home", "go  to  home"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"  Go To HOME ", "go back", "WHAT time is IT", ""}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Intent
	}{
		{"home", "go to home", NavigateHome},
		{"home with surrounding words", "please go to home now", NavigateHome},
		{"about", "go to about", NavigateAbout},
		{"contact", "go to contact", NavigateContact},
		{"forum", "go to forum", NavigateForum},
		{"forum plural still matches", "go to forums", NavigateForum},
		{"login", "go to login", NavigateLogin},
		{"signup", "go to sign up", NavigateSignup},
		{"voicea", "go to voicea", NavigateVoicea},
		{"netra", "go to netra ai", NavigateNetra},
		{"back", "go back", NavigateBack},
		{"back alternate phrasing", "go to back", NavigateBack},
		{"unknown", "what time is it", Unknown},
		{"empty", "", Unknown},
		{"partial command", "home", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Match(tt.in); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// The rule list is a fixed priority order: when an utterance contains both a
// specific destination and the back phrase, the destination wins because its
// rule appears earlier.
func TestMatch_RulePriority(t *testing.T) {
	t.Parallel()

	if got := Match("go back and then go to home"); got != NavigateHome {
		t.Errorf("Match = %v, want NavigateHome (earlier rule wins)", got)
	}
	if got := Match("go to home or go back"); got != NavigateHome {
		t.Errorf("Match = %v, want NavigateHome regardless of word order", got)
	}
}

func TestResponse(t *testing.T) {
	t.Parallel()

	if got := Response(NavigateHome); got != "Navigating to the home page." {
		t.Errorf("Response(NavigateHome) = %q", got)
	}
	if got := Response(Unknown); got != FallbackResponse {
		t.Errorf("Response(Unknown) = %q, want fallback", got)
	}
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	routes := Routes()
	want := []string{"home", "about", "contact", "forums", "login", "signup", "voicea", "netra"}
	if len(routes) != len(want) {
		t.Fatalf("Routes() returned %d entries, want %d", len(routes), len(want))
	}
	for i, r := range want {
		if routes[i] != r {
			t.Errorf("Routes()[%d] = %q, want %q", i, routes[i], r)
		}
	}
}
