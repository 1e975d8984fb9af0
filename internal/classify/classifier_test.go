package classify

import "testing"

func TestClassify_KnownPlatforms(t *testing.T) {
	tests := []struct {
		url      string
		platform string
		tier     int
	}{
		{"https://lu.ma/abc123", PlatformLuma, 1},
		{"https://luma.com/xyz", PlatformLuma, 1},
		{"https://www.eventbrite.com/e/some-event-1234", PlatformEventbrite, 1},
		{"https://www.eventbrite.co.uk/e/london-meetup", PlatformEventbrite, 1},
		{"https://www.meetup.com/golang-sf/events/123", PlatformMeetup, 3},
		{"https://partiful.com/e/abc", PlatformGeneric, 3},
		{"https://gophercon.example.org/2026", PlatformConference, 2},
		{"https://devsummit.io/agenda", PlatformConference, 2},
		{"https://random-blog.example.com/post", PlatformGeneric, 2},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			c, err := Classify(tt.url)
			if err != nil {
				t.Fatalf("Classify(%q): %v", tt.url, err)
			}
			if c.Platform != tt.platform {
				t.Errorf("platform = %q, want %q", c.Platform, tt.platform)
			}
			if c.Tier != tt.tier {
				t.Errorf("tier = %d, want %d", c.Tier, tt.tier)
			}
		})
	}
}

func TestClassify_Bounds(t *testing.T) {
	urls := []string{
		"https://lu.ma/a",
		"https://www.meetup.com/x",
		"https://anything.example.net/whatever",
		"https://pycon.org/2026",
	}
	for _, u := range urls {
		c, err := Classify(u)
		if err != nil {
			t.Fatalf("Classify(%q): %v", u, err)
		}
		if c.Tier < 1 || c.Tier > 3 {
			t.Errorf("%s: tier %d out of range", u, c.Tier)
		}
		if c.Complexity < 0 || c.Complexity > 1 {
			t.Errorf("%s: complexity %f out of range", u, c.Complexity)
		}
	}
}

func TestClassify_Malformed(t *testing.T) {
	for _, u := range []string{"", "not-a-url", "mailto:x@example.com", "//missing-scheme.com/x"} {
		_, err := Classify(u)
		if err == nil {
			t.Errorf("Classify(%q): expected error, got nil", u)
		}
	}
}
