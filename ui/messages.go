package ui

// InitialPromptMsg fires one send as soon as the program starts, injected
// by main when the -prompt flag is set.
type InitialPromptMsg struct {
	Prompt string
}
