package main

import "fmt"

// ProjectURL is advertised in the User-Agent so the API operator can reach us.
const ProjectURL = "https://github.com/loyaltygo/loyaltygo"

// userAgent identifies this build to the loyalty API, e.g.
// loyaltygo/1.0.0 (https://github.com/loyaltygo/loyaltygo).
func userAgent() string {
	return fmt.Sprintf("%s/%s (%s)", AppName, Version, ProjectURL)
}
