package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/stagegate/internal/cli/formatter"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// stagegateHuhTheme returns a huh theme using the formatter palette.
func stagegateHuhTheme() *huh.Theme {
	t := huh.ThemeBase()
	accent := lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	fg := lipgloss.NewStyle().Foreground(formatter.ColorFg)
	dim := lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Focused.Title = accent.Bold(true)
	t.Focused.SelectSelector = accent
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = fg
	t.Focused.FocusedButton = fg.Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = dim.Padding(0, 1)
	t.Focused.TextInput.Cursor = accent
	t.Focused.TextInput.Prompt = accent
	t.Focused.TextInput.Text = fg
	t.Focused.TextInput.Placeholder = dim
	t.Focused.Description = dim
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	t.Blurred.Title = dim
	t.Blurred.SelectSelector = dim
	t.Blurred.SelectedOption = dim
	t.Blurred.UnselectedOption = dim
	t.Blurred.TextInput.Prompt = dim
	t.Blurred.TextInput.Text = dim
	return t
}

func runForm(ctx context.Context, form *huh.Form) error {
	err := form.WithTheme(stagegateHuhTheme()).WithShowHelp(false).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return fmt.Errorf("cancelled")
	}
	return err
}

func validateRequired(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

func validateShortID(s string) error {
	p := domain.Project{ShortID: strings.ToUpper(strings.TrimSpace(s))}
	if err := p.ValidateShortID(); err != nil {
		return errors.New("3-6 uppercase letters then 2-4 digits, e.g. RAD01")
	}
	return nil
}

func validateOptionalDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := domain.ParseDate(s); err != nil {
		return errors.New("use YYYY-MM-DD format")
	}
	return nil
}

func validateMoney(s string) error {
	if _, err := parseMoney(s); err != nil {
		return errors.New("enter an amount like 1500000.00")
	}
	return nil
}

// projectForm collects the fields project add needs. Values already set
// from flags are shown as defaults.
type projectForm struct {
	ShortID, Name, Sponsor, Category, Budget, Start string
}

func (f *projectForm) form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Short ID").Placeholder("RAD01").Value(&f.ShortID).Validate(validateShortID),
			huh.NewInput().Title("Name").Value(&f.Name).Validate(validateRequired("name")),
			huh.NewInput().Title("Sponsor").Value(&f.Sponsor),
			huh.NewInput().Title("Category").Value(&f.Category),
			huh.NewInput().Title("Budget").Placeholder("0.00").Value(&f.Budget).Validate(validateMoney),
			huh.NewInput().Title("Start date").Description("blank for today").Placeholder("YYYY-MM-DD").
				Value(&f.Start).Validate(validateOptionalDate),
		),
	)
}

// confirm asks a yes/no question. Non-interactive sessions answer yes.
func (a *App) confirm(ctx context.Context, title string) (bool, error) {
	if !a.IsInteractive {
		return true, nil
	}
	ok := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&ok),
	))
	if err := runForm(ctx, form); err != nil {
		return false, err
	}
	return ok, nil
}
