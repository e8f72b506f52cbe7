package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/validation"
)

func NewHabitForm(fm *HabitFormModel) *huh.Form {
	options := make([]huh.Option[models.Frequency], 0, len(models.Frequencies))
	for _, f := range models.Frequencies {
		options = append(options, huh.NewOption(strings.ToLower(string(f)), f))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Description").
				Value(&fm.Description),
			huh.NewSelect[models.Frequency]().
				Title("Frequency").
				Options(options...).
				Value(&fm.Frequency),
			huh.NewInput().
				Title("Times per period").
				Description("Only used by the n-times-per-week and n-times-per-month frequencies.").
				Value(&fm.Times).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					if _, err := strconv.Atoi(s); err != nil {
						return errors.New("must be a whole number")
					}
					return nil
				}),
		),
	).WithShowHelp(true)
}

// habit converts the form values into a normalized, validated habit.
func (fm *HabitFormModel) habit() (models.Habit, error) {
	h := models.Habit{
		Name:        fm.Name,
		Description: fm.Description,
		Frequency:   fm.Frequency,
		Status:      models.StatusActive,
		CreatedAt:   time.Now(),
	}
	if fm.Times != "" {
		n, err := strconv.Atoi(fm.Times)
		if err != nil {
			return h, fmt.Errorf("%w: invalid times %q", validation.ErrInvalidHabit, fm.Times)
		}
		h.TargetCount = n
	}

	v := validation.New()
	h = v.Normalize(h)
	if err := v.ValidateHabit(h).Err(); err != nil {
		return h, err
	}
	return h, nil
}

func addHabit(store storage.Provider, fm *HabitFormModel) (models.Habit, error) {
	h, err := fm.habit()
	if err != nil {
		return h, err
	}
	added, err := store.AddHabit(h)
	if errors.Is(err, storage.ErrDuplicateName) {
		return h, fmt.Errorf("habit with name %q already exists", h.Name)
	}
	return added, err
}
