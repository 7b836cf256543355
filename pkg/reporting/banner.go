/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: banner.go
Description: ASCII banner and rotating tagline for the CLI layer. Displayed before a
run unless suppressed; the safety warning is always printed alongside the banner.
*/

package reporting

import (
	"math/rand"
)

// Banner is the ASCII art header shown at startup.
const Banner = `
 _   _            _    ____                  _
| | | | __ _  ___| | _| __ )  ___ _ __   ___| |__
| |_| |/ _` + "`" + ` |/ __| |/ /  _ \ / _ \ '_ \ / __| '_ \
|  _  | (_| | (__|   <| |_) |  __/ | | | (__| | | |
|_| |_|\__,_|\___|_|\_\____/ \___|_| |_|\___|_| |_|
`

// LegalWarning is printed with the banner and cannot be suppressed when the
// banner is shown.
const LegalWarning = `This tool dispatches real attack payloads. Use it ONLY against lab instances
you are explicitly authorized to test. Unauthorized testing is illegal.`

var taglines = []string{
	"Payloads With A Lesson Plan.",
	"Offense Practice, Defense Insights.",
	"Classroom Drills For Curious Hackers.",
	"Lab-Grade Mischief, Fully Supervised.",
	"Because Exploits Deserve Office Hours.",
	"Where Payloads Earn Their Diplomas.",
	"Hands-On Vulns, Zero Production Drama.",
	"Proof-of-Concepts With A Syllabus.",
}

// Tagline picks a random tagline for this run.
func Tagline() string {
	return taglines[rand.Intn(len(taglines))]
}
