package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the taproot ASCII banner.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Green canopy fading into root brown.
	s1 := termenv.String("  _                             _   ").Foreground(p.Color("#4ade80"))
	s2 := termenv.String(" | |_ __ _ _ __  _ __ ___  ___ | |_ ").Foreground(p.Color("#34d399"))
	s3 := termenv.String(" | __/ _` | '_ \\| '__/ _ \\/ _ \\| __|").Foreground(p.Color("#2dd4bf"))
	s4 := termenv.String(" | || (_| | |_) | | | (_) | (_) | |_ ").Foreground(p.Color("#b45309"))
	s5 := termenv.String("  \\__\\__,_| .__/|_|  \\___/\\___/ \\__|").Foreground(p.Color("#92400e"))
	s6 := termenv.String("          |_|                       ").Foreground(p.Color("#78350f"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	fmt.Println()
}
