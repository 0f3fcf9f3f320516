package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the startup banner with the given version.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	s1 := termenv.String("     _                    _              ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String("    / \\   __ _  ___ _ __ | |_ _ __ _   _ ").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String("   / _ \\ / _` |/ _ \\ '_ \\| __| '__| | | |").Foreground(p.Color("#c084fc"))
	s4 := termenv.String("  / ___ \\ (_| |  __/ | | | |_| |  | |_| |").Foreground(p.Color("#e879f9"))
	s5 := termenv.String(" /_/   \\_\\__, |\\___|_| |_|\\__|_|   \\__, |").Foreground(p.Color("#f472b6"))
	s6 := termenv.String("         |___/                     |___/ ").Foreground(p.Color("#fb7185"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	if v := strings.TrimSpace(version); v != "" {
		fmt.Printf("  v%s\n", v)
	}
	fmt.Println()
}
