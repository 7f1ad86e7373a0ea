package command

import "strings"

// Line holds the command word and arguments of one input line.
type Line struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// Rest is the text after the command with inner spacing preserved,
	// used for multi-word move and item names.
	Rest string
}

// Parse splits a text line into a command and arguments.
//
// Postcondition: Returns a Line. If line is blank, Command is empty.
func Parse(line string) Line {
	line = strings.TrimSpace(line)
	if line == "" {
		return Line{}
	}
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	return Line{
		Command: strings.ToLower(word),
		Args:    strings.Fields(rest),
		Rest:    rest,
	}
}
