// Package tui contains the interactive terminal prompts used when the
// operator opts into resolving ambiguities by hand.
package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/quantmind-br/wikiport/internal/domain"
)

// CollectionPicker resolves an ambiguous collection name by asking the
// operator to pick one of the matching remote collections. It satisfies the
// uploader's ambiguity strategy interface; the non-interactive default fails
// the space instead.
type CollectionPicker struct{}

// Choose presents the candidates and returns the chosen collection ID.
func (CollectionPicker) Choose(name string, candidates []domain.Collection) (string, error) {
	options := make([]huh.Option[string], len(candidates))
	for i, c := range candidates {
		label := fmt.Sprintf("%s (%s)", c.Name, c.ID)
		if c.Description != "" {
			label = fmt.Sprintf("%s - %s", label, c.Description)
		}
		options[i] = huh.NewOption(label, c.ID)
	}

	var chosen string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("collection").
				Title(fmt.Sprintf("Multiple collections named %q", name)).
				Description("Select the collection this space should synchronize into").
				Options(options...).
				Value(&chosen),
		),
	)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("collection selection aborted: %w", err)
	}
	return chosen, nil
}
