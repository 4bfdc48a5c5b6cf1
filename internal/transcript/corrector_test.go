package transcript

import "testing"

var routes = []string{"home", "about", "contact", "forums", "login", "signup", "voicea", "netra"}

func TestCorrect_ExactUtteranceUnchanged(t *testing.T) {
	t.Parallel()

	c := New(routes)
	inputs := []string{
		"go to home",
		"go to netra ai",
		"go back",
		"go  to  home", // original spacing preserved when nothing changes
	}
	for _, in := range inputs {
		if got := c.Correct(in); got != in {
			t.Errorf("Correct(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestCorrect_PhoneticNearMiss(t *testing.T) {
	t.Parallel()

	c := New(routes)
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"netra misheard", "go to netro ai", "go to netra ai"},
		{"home misheard", "go to hoem", "go to home"},
		{"contact misheard", "go to kontact", "go to contact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := c.Correct(tt.in); got != tt.want {
				t.Errorf("Correct(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCorrect_FillerWordsNeverRewritten(t *testing.T) {
	t.Parallel()

	c := New(routes)
	// "go", "to", "back" are grammar words even though some of them are
	// phonetically close to vocabulary entries.
	if got := c.Correct("go back"); got != "go back" {
		t.Errorf("Correct(%q) = %q, filler words must survive", "go back", got)
	}
}

func TestCorrect_UnrelatedWordsUntouched(t *testing.T) {
	t.Parallel()

	c := New(routes)
	in := "what time is it"
	if got := c.Correct(in); got != in {
		t.Errorf("Correct(%q) = %q, want unchanged", in, got)
	}
}

func TestCorrect_EmptyInput(t *testing.T) {
	t.Parallel()

	c := New(routes)
	if got := c.Correct(""); got != "" {
		t.Errorf("Correct(\"\") = %q", got)
	}
	if got := c.Correct("   "); got != "   " {
		t.Errorf("Correct(whitespace) = %q, want unchanged", got)
	}
}

func TestCorrect_EmptyVocabulary(t *testing.T) {
	t.Parallel()

	c := New(nil)
	in := "go to netro ai"
	if got := c.Correct(in); got != in {
		t.Errorf("Correct with empty vocab = %q, want unchanged", got)
	}
}

func TestCorrect_ThresholdOptions(t *testing.T) {
	t.Parallel()

	// With an impossible threshold nothing is ever corrected.
	strict := New(routes, WithPhoneticThreshold(1.01), WithFuzzyThreshold(1.01))
	in := "go to netro ai"
	if got := strict.Correct(in); got != in {
		t.Errorf("strict corrector rewrote %q to %q", in, got)
	}
}
