// Package prompt asks the operator questions on the terminal.
package prompt

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/shopadmin-cli/shopadmin/pkg/shops"
)

// ErrInterrupted is returned when the operator presses Ctrl+C at a prompt.
var ErrInterrupted = errors.New("interrupted")

type askFunc func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error

// Terminal implements metafields.Confirmer and the shop chooser used by
// shops.Resolve.
type Terminal struct {
	ask askFunc
}

func NewTerminal() *Terminal {
	return &Terminal{ask: survey.AskOne}
}

// Confirm asks a yes/no question. An interrupt is reported as ErrInterrupted.
func (t *Terminal) Confirm(message string, def bool) (bool, error) {
	answer := def
	err := t.ask(&survey.Confirm{Message: message, Default: def}, &answer)
	if err != nil {
		return false, translate(err)
	}
	return answer, nil
}

// ChooseShop lets the operator pick one of the configured shops and returns
// its name.
func (t *Terminal) ChooseShop(list []shops.Shop) (string, error) {
	if len(list) == 0 {
		return "", shops.ErrNoShops
	}
	options := make([]string, len(list))
	for i, s := range list {
		options[i] = fmt.Sprintf("%s (%s)", s.Name, s.URL)
	}

	var idx int
	if err := t.ask(&survey.Select{Message: "Select a shop:", Options: options}, &idx); err != nil {
		return "", translate(err)
	}
	if idx < 0 || idx >= len(list) {
		return "", fmt.Errorf("invalid selection %d", idx)
	}
	return list[idx].Name, nil
}

func translate(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrInterrupted
	}
	return err
}
