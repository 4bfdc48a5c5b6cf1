// Package assistant implements the voice dialogue engine: utterance
// normalization, intent matching over a fixed command vocabulary, and the
// dialogue session state machine that turns recognized utterances into
// navigation actions and spoken responses.
package assistant

import "strings"

// Intent is one of the closed set of actions an utterance can map to.
type Intent string

const (
	NavigateHome    Intent = "navigate_home"
	NavigateAbout   Intent = "navigate_about"
	NavigateContact Intent = "navigate_contact"
	NavigateForum   Intent = "navigate_forum"
	NavigateLogin   Intent = "navigate_login"
	NavigateSignup  Intent = "navigate_signup"
	NavigateVoicea  Intent = "navigate_voicea"
	NavigateNetra   Intent = "navigate_netra"
	NavigateBack    Intent = "navigate_back"
	Unknown         Intent = "unknown"
)

// FallbackResponse is spoken when no rule matches the utterance.
const FallbackResponse = "I'm not sure how to help with that."

// rule pairs the substring patterns that trigger an intent with the route it
// navigates to and the canned response it speaks. A rule matches when any of
// its patterns is a substring of the normalized utterance.
type rule struct {
	patterns []string
	intent   Intent
	route    string
	response string
}

// rules is the fixed priority list evaluated by [Match]. Order is
// significant: the first matching rule wins, and the back-navigation pair
// sits last so that phrases like "go to home" are never swallowed by the
// catch-all "go back".
var rules = []rule{
	{patterns: []string{"go to home"}, intent: NavigateHome, route: "home", response: "Navigating to the home page."},
	{patterns: []string{"go to about"}, intent: NavigateAbout, route: "about", response: "Navigating to the about page."},
	{patterns: []string{"go to contact"}, intent: NavigateContact, route: "contact", response: "Navigating to the contact page."},
	{patterns: []string{"go to forum"}, intent: NavigateForum, route: "forums", response: "Navigating to the forum page."},
	{patterns: []string{"go to login"}, intent: NavigateLogin, route: "login", response: "Navigating to the login page."},
	{patterns: []string{"go to sign up"}, intent: NavigateSignup, route: "signup", response: "Navigating to the signup page."},
	{patterns: []string{"go to voicea"}, intent: NavigateVoicea, route: "voicea", response: "Navigating to the Voicea page."},
	{patterns: []string{"go to netra ai"}, intent: NavigateNetra, route: "netra", response: "Navigating to the Netra AI page."},
	{patterns: []string{"go to back", "go back"}, intent: NavigateBack, route: "", response: "Going back to the previous page."},
}

// Normalize lower-cases and trims the raw transcript for matching. It is a
// pure, total function and idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(transcript string) string {
	return strings.ToLower(strings.TrimSpace(transcript))
}

// Match maps a normalized utterance to an [Intent] by evaluating the fixed
// rule list in order and returning the first rule with a pattern that is a
// substring of the input. Returns [Unknown] when nothing matches.
//
// Match is pure: navigation and speech are triggered by the caller based on
// the returned intent, never here.
func Match(normalized string) Intent {
	for _, r := range rules {
		for _, p := range r.patterns {
			if strings.Contains(normalized, p) {
				return r.intent
			}
		}
	}
	return Unknown
}

// Routes returns the route vocabulary known to the matcher, in rule order,
// excluding the back intent which has no named route. Used to seed the
// phonetic route corrector.
func Routes() []string {
	routes := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.route != "" {
			routes = append(routes, r.route)
		}
	}
	return routes
}

// Response returns the canned response text for in. For [Unknown] it returns
// [FallbackResponse].
func Response(in Intent) string {
	for _, r := range rules {
		if r.intent == in {
			return r.response
		}
	}
	return FallbackResponse
}

// route returns the navigation route name for in, or "" when the intent does
// not navigate to a named route.
func route(in Intent) string {
	for _, r := range rules {
		if r.intent == in {
			return r.route
		}
	}
	return ""
}
