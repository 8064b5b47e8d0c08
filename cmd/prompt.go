package cmd

import (
	"github.com/charmbracelet/huh"
)

// SelectOption pairs a display label with a value.
type SelectOption[T comparable] struct {
	Label string
	Value T
}

func runWithHelp(fields ...huh.Field) error {
	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).Run()
}

// promptString prompts for a text input. Empty input returns defaultVal.
func promptString(title, description, defaultVal string) (string, error) {
	var value string
	inp := huh.NewInput().
		Title(title).
		Value(&value)
	if description != "" {
		inp = inp.Description(description)
	}
	if defaultVal != "" {
		inp = inp.Placeholder(defaultVal)
	}
	if err := runWithHelp(inp); err != nil {
		return "", err
	}
	if value == "" {
		return defaultVal, nil
	}
	return value, nil
}

// promptPassword prompts for hidden input.
func promptPassword(title, description string) (string, error) {
	var value string
	inp := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value)
	if description != "" {
		inp = inp.Description(description)
	}
	if err := runWithHelp(inp); err != nil {
		return "", err
	}
	return value, nil
}

// promptSelect shows a single-select list and returns the chosen value.
func promptSelect[T comparable](title string, options []SelectOption[T], defaultIdx int) (T, error) {
	var value T
	opts := make([]huh.Option[T], 0, len(options))
	for i, o := range options {
		opt := huh.NewOption(o.Label, o.Value)
		if i == defaultIdx {
			opt = opt.Selected(true)
		}
		opts = append(opts, opt)
	}
	sel := huh.NewSelect[T]().
		Title(title).
		Options(opts...).
		Value(&value)
	if err := runWithHelp(sel); err != nil {
		return value, err
	}
	return value, nil
}

// promptConfirm shows a yes/no prompt.
func promptConfirm(title string, defaultVal bool) (bool, error) {
	value := defaultVal
	c := huh.NewConfirm().
		Title(title).
		Value(&value)
	if err := runWithHelp(c); err != nil {
		return false, err
	}
	return value, nil
}
