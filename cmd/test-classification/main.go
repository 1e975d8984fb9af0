// Test program to demonstrate URL canonicalization and platform
// classification on a sample of real-world event URLs.
package main

import (
	"fmt"
	"strings"

	"eventscout/internal/classify"
	"eventscout/internal/resolve"
)

func main() {
	testURLs := []string{
		"https://lu.ma/abc123?utm_source=newsletter&utm_medium=email",
		"https://www.eventbrite.com/e/go-meetup-tickets-123456789",
		"https://www.meetup.com/golang-sf/events/298765432/",
		"https://partiful.com/e/xYz123",
		"https://devconf.example.org/2026/schedule?fbclid=IwAR0abc",
		"https://example.com/blog/announcing-our-launch-party",
		"HTTP://Example.COM:80/Events/?gclid=track#tickets",
	}

	fmt.Println("=== Canonicalization & Classification ===")
	fmt.Println()

	for _, url := range testURLs {
		fmt.Printf("Input: %s\n", url)
		fmt.Println(strings.Repeat("-", 60))

		canonical, err := resolve.Canonicalize(url)
		if err != nil {
			fmt.Printf("  canonicalize error: %v\n\n", err)
			continue
		}
		fmt.Printf("  Canonical:  %s\n", canonical)

		cls, err := classify.Classify(canonical)
		if err != nil {
			fmt.Printf("  classify error: %v\n\n", err)
			continue
		}
		fmt.Printf("  Platform:   %s\n", cls.Platform)
		fmt.Printf("  Complexity: %.2f\n", cls.Complexity)
		fmt.Printf("  Tier:       %d\n", cls.Tier)
		fmt.Println()
	}
}
