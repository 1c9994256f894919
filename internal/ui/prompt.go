package ui

import (
	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Prompter asks the user for values which the pipeline did not receive
// through flags or the environment.
type Prompter struct {
	Stdio *terminal.Stdio
}

func (p *Prompter) options() []survey.AskOpt {
	if p.Stdio == nil {
		return nil
	}
	return []survey.AskOpt{
		survey.WithStdio(p.Stdio.In, p.Stdio.Out, p.Stdio.Err),
	}
}

func (p *Prompter) YesNo(text string) (bool, error) {
	var result bool
	err := survey.AskOne(&survey.Confirm{
		Message: text,
	}, &result, p.options()...)
	return result, err
}

func (p *Prompter) String(text string, defaultValue string) (string, error) {
	var result string
	err := survey.AskOne(&survey.Input{
		Message: text,
		Default: defaultValue,
	}, &result, p.options()...)
	return result, err
}
