package model

import (
	"encoding/json"
	"fmt"
)

// Environment selects which fixed instruction template a conversation's
// prompts are built from. Exactly two values exist.
type Environment string

const (
	// EnvironmentExecutor targets executor runtimes.
	EnvironmentExecutor Environment = "executor"
	// EnvironmentStudio targets Roblox Studio development.
	EnvironmentStudio Environment = "studio"
)

// Valid reports whether e is one of the two known environments.
func (e Environment) Valid() bool {
	switch e {
	case EnvironmentExecutor, EnvironmentStudio:
		return true
	}
	return false
}

// ParseEnvironment converts a raw tag into an Environment, rejecting
// anything outside the closed set.
func ParseEnvironment(s string) (Environment, error) {
	e := Environment(s)
	if !e.Valid() {
		return "", fmt.Errorf("environment must be %q or %q", EnvironmentExecutor, EnvironmentStudio)
	}
	return e, nil
}

// UnmarshalJSON enforces the closed set at decode time.
func (e *Environment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseEnvironment(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
