package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/julianstephens/tally/internal/models"
)

// MaxNameLength is the longest habit name accepted, in runes.
const MaxNameLength = 64

// ErrInvalidHabit is wrapped by ValidationResult.Err.
var ErrInvalidHabit = errors.New("invalid habit")

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictMissingName        ConflictType = "missing_name"
	ConflictNameTooLong        ConflictType = "name_too_long"
	ConflictDuplicateHabitName ConflictType = "duplicate_habit_name"
	ConflictInvalidFrequency   ConflictType = "invalid_frequency"
	ConflictInvalidTargetCount ConflictType = "invalid_target_count"
	ConflictInvalidTargetValue ConflictType = "invalid_target_value"
	ConflictInvalidStatus      ConflictType = "invalid_status"
	ConflictInvalidColor       ConflictType = "invalid_color"
)

// Conflict represents a problem detected in one or more habits
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // Habit names involved
	HabitIDs    []int64  // IDs of habits involved, when stored
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Err returns nil when there are no conflicts, otherwise an error wrapping
// ErrInvalidHabit that lists every conflict.
func (vr ValidationResult) Err() error {
	if !vr.HasConflicts() {
		return nil
	}
	descs := make([]string, 0, len(vr.Conflicts))
	for _, c := range vr.Conflicts {
		descs = append(descs, c.Description)
	}
	return fmt.Errorf("%w: %s", ErrInvalidHabit, strings.Join(descs, "; "))
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validator checks habit definitions before they are stored
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// Normalize trims the name and clears fields the habit's configuration
// ignores: the numeric target and unit of a non-numeric habit and the target
// count of policies that do not count repetitions.
func (v *Validator) Normalize(h models.Habit) models.Habit {
	h.Name = strings.TrimSpace(h.Name)
	if !h.IsNumeric {
		h.TargetValue = nil
		h.Unit = ""
	}
	if !h.Frequency.UsesTargetCount() {
		h.TargetCount = 0
	}
	if h.Status == "" {
		h.Status = models.StatusActive
	}
	return h
}

// ValidateHabit checks a single habit's fields.
func (v *Validator) ValidateHabit(h models.Habit) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	add := func(t ConflictType, format string, args ...any) {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        t,
			Description: fmt.Sprintf(format, args...),
			Items:       []string{h.Name},
			HabitIDs:    idsOf(h),
		})
	}

	name := strings.TrimSpace(h.Name)
	switch {
	case name == "":
		add(ConflictMissingName, "Habit %d has no name", h.ID)
	case utf8.RuneCountInString(name) > MaxNameLength:
		add(ConflictNameTooLong, "Habit name %q is longer than %d characters", name, MaxNameLength)
	}

	if _, err := models.ParseFrequency(string(h.Frequency)); err != nil {
		add(ConflictInvalidFrequency, "Habit %q has unknown frequency %q", name, h.Frequency)
	}

	switch h.Frequency {
	case models.FrequencyNTimesPerWeek:
		if h.TargetCount < 1 || h.TargetCount > 7 {
			add(ConflictInvalidTargetCount, "Habit %q needs a target count between 1 and 7 per week, got %d", name, h.TargetCount)
		}
	case models.FrequencyNTimesPerMonth:
		if h.TargetCount < 1 || h.TargetCount > 31 {
			add(ConflictInvalidTargetCount, "Habit %q needs a target count between 1 and 31 per month, got %d", name, h.TargetCount)
		}
	}

	if h.IsNumeric {
		switch {
		case h.TargetValue == nil:
			add(ConflictInvalidTargetValue, "Numeric habit %q has no target value", name)
		case *h.TargetValue <= 0 || math.IsNaN(*h.TargetValue) || math.IsInf(*h.TargetValue, 0):
			add(ConflictInvalidTargetValue, "Numeric habit %q needs a positive target value, got %v", name, *h.TargetValue)
		}
	}

	switch h.Status {
	case "", models.StatusActive, models.StatusPaused, models.StatusArchived:
	default:
		add(ConflictInvalidStatus, "Habit %q has unknown status %q", name, h.Status)
	}

	if h.Color != "" && !colorPattern.MatchString(h.Color) {
		add(ConflictInvalidColor, "Habit %q has invalid color %q (expected #RRGGBB)", name, h.Color)
	}

	return result
}

// ValidateHabits checks every habit and reports names shared by more than
// one habit, compared case-insensitively.
func (v *Validator) ValidateHabits(habits []models.Habit) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	byName := make(map[string][]models.Habit)
	for _, h := range habits {
		result.Conflicts = append(result.Conflicts, v.ValidateHabit(h).Conflicts...)

		key := strings.ToLower(strings.TrimSpace(h.Name))
		if key == "" {
			continue
		}
		byName[key] = append(byName[key], h)
	}

	keys := make([]string, 0, len(byName))
	for k := range byName {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		dupes := byName[k]
		if len(dupes) < 2 {
			continue
		}
		var ids []int64
		names := make([]string, 0, len(dupes))
		for _, h := range dupes {
			ids = append(ids, idsOf(h)...)
			names = append(names, h.Name)
		}
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictDuplicateHabitName,
			Description: fmt.Sprintf("Duplicate habit name: %q (IDs: %v)", dupes[0].Name, ids),
			Items:       names,
			HabitIDs:    ids,
		})
	}

	return result
}

func idsOf(h models.Habit) []int64 {
	if h.ID == 0 {
		return nil
	}
	return []int64{h.ID}
}
