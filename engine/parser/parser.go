// Package parser converts command strings into Intent structs.
// Intentionally dumb: no NLP, just positional pattern matching.
package parser

import (
	"strings"

	"github.com/nathoo/djinncore/types"
)

var verbAliases = map[string]string{
	// Attack
	"a":      "attack",
	"hit":    "attack",
	"strike": "attack",

	// Cast
	"c":   "cast",
	"use": "cast",

	// Clear
	"cancel": "clear",
	"unset":  "clear",

	// Djinn
	"d":        "djinn",
	"activate": "djinn",
	"unleash":  "djinn",
	"ud":       "undjinn",

	// Execute the round
	"go":      "fight",
	"end":     "fight",
	"done":    "fight",
	"execute": "fight",
	"run":     "fight",

	// Info
	"p":  "preview",
	"s":  "status",
	"st": "status",
	"?":  "help",
}

var prepositions = map[string]bool{
	"on": true, "at": true, "to": true,
	"with": true, "in": true, "into": true,
	"against": true, "slot": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw command string into an Intent.
//
//	attack <unit> <target>
//	cast <unit> <ability> [targets...]
//	preview <unit> <ability|attack> <target>
//	clear <slot>
//	djinn <id> / undjinn <id>
//	equip <id> [slot] / unequip <id>
//	fight, status, help
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(input))

	// Handle multi-word verb phrases before general parsing.
	words = expandMultiWordVerbs(words)

	// Apply verb aliases.
	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	verb := words[0]
	rest := stripFillers(words[1:])
	intent := types.Intent{Verb: verb}

	switch verb {
	case "attack":
		intent.Actor = at(rest, 0)
		intent.Targets = from(rest, 1)
	case "cast":
		intent.Actor = at(rest, 0)
		intent.Ability = at(rest, 1)
		intent.Targets = from(rest, 2)
	case "preview":
		intent.Actor = at(rest, 0)
		if ability := at(rest, 1); ability != "attack" {
			intent.Ability = ability
		}
		intent.Targets = from(rest, 2)
	case "equip":
		intent.Arg = at(rest, 0)
		intent.Slot = at(rest, 1)
	default:
		intent.Arg = strings.Join(rest, " ")
	}
	return intent
}

// expandMultiWordVerbs handles "end turn", "set djinn", "queue djinn" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "end", "next":
		if words[1] == "turn" || words[1] == "round" {
			return append([]string{"fight"}, words[2:]...)
		}
	case "set", "queue":
		if words[1] == "djinn" {
			return append([]string{"djinn"}, words[2:]...)
		}
	case "unqueue", "release":
		if words[1] == "djinn" {
			return append([]string{"undjinn"}, words[2:]...)
		}
	case "show":
		if words[1] == "status" || words[1] == "state" {
			return append([]string{"status"}, words[2:]...)
		}
	}

	return words
}

// stripFillers removes articles and prepositions from the word list. The
// grammar is positional, so neither carries meaning.
func stripFillers(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] && !prepositions[w] {
			result = append(result, w)
		}
	}
	return result
}

func at(words []string, i int) string {
	if i < len(words) {
		return words[i]
	}
	return ""
}

func from(words []string, i int) []string {
	if i >= len(words) {
		return nil
	}
	return append([]string(nil), words[i:]...)
}
