package teleport

import (
	"context"
	"fmt"
	"strings"

	"github.com/pixil98/go-waypoint/internal/display"
)

func categoryError(c Category) error {
	return newError(KindInvalidArgument, "Unknown location category %q.", string(c))
}

func locationLabel(c Category, name string) string {
	return fmt.Sprintf("%s '%s'", c, name)
}

func notFoundLocation(c Category, name string) error {
	return newError(KindNotFound, "You have no %s named '%s'. Use list%s to see them.", c, name, c.Plural())
}

// GotoLocation teleports uid to one of their saved locations. An empty name
// means the default entry.
func (svc *Service) GotoLocation(ctx context.Context, uid string, c Category, name string) (string, error) {
	if !c.Valid() {
		return "", categoryError(c)
	}
	cs := svc.settings.Categories.Get(c)
	if !cs.Enabled {
		return "", newError(KindDisabled, "Teleporting to %s locations is disabled.", c)
	}
	if name == "" {
		name = DefaultLocation
	}

	label := locationLabel(c, name)
	trip, err := svc.travel(ctx, uid, journey{
		action:   string(c),
		command:  string(c),
		label:    label,
		settings: cs.ActionSettings,
		cost:     cs.CostFor(name),
		destination: func(ps *PlayerState) (Position, error) {
			pos, ok := ps.record.Set(c)[name]
			if !ok {
				return Position{}, notFoundLocation(c, name)
			}
			return pos, nil
		},
	})
	if err != nil {
		return "", err
	}
	return svc.describe(label, trip), nil
}

// SetLocation saves uid's current position under name.
func (svc *Service) SetLocation(ctx context.Context, uid string, c Category, name string) (string, error) {
	if !c.Valid() {
		return "", categoryError(c)
	}
	if _, err := svc.locateSelf(uid); err != nil {
		return "", err
	}

	cs := svc.settings.Categories.Get(c)
	if name == "" {
		name = DefaultLocation
	}
	if cs.SingleMode && name != DefaultLocation {
		return "", newError(KindSingleModeViolation,
			"Only one %s is allowed; use set%s without a name to replace it.", c, c)
	}

	ps := svc.states.Get(uid)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	pos, err := svc.locateSelf(uid)
	if err != nil {
		return "", err
	}

	set := ps.record.Set(c)
	if _, exists := set[name]; !exists {
		if limit := cs.EffectiveMax(); limit > 0 && len(set) >= limit {
			e := newError(KindLimitReached, "You already have %d of %d %s. Delete one first.", len(set), limit, c.Plural())
			e.Limit = limit
			return "", e
		}
	}

	ps.record.put(c, name, pos)
	svc.states.persist(ctx, ps)
	svc.audit("%s set %s at %s", svc.nameOf(uid), locationLabel(c, name), pos.Rounded())

	return fmt.Sprintf("%s '%s' set at %s.", display.Capitalize(string(c)), name, pos.Rounded()), nil
}

// DeleteLocation removes one saved location.
func (svc *Service) DeleteLocation(ctx context.Context, uid string, c Category, name string) (string, error) {
	if !c.Valid() {
		return "", categoryError(c)
	}
	if _, err := svc.locateSelf(uid); err != nil {
		return "", err
	}
	if name == "" {
		name = DefaultLocation
	}
	if svc.settings.Categories.Get(c).SingleMode && name != DefaultLocation {
		return "", newError(KindSingleModeViolation, "Only the default %s can be deleted in single mode.", c)
	}

	ps := svc.states.Get(uid)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, ok := ps.record.Set(c)[name]; !ok {
		return "", notFoundLocation(c, name)
	}
	ps.record.remove(c, name)
	svc.states.persist(ctx, ps)
	svc.audit("%s deleted %s", svc.nameOf(uid), locationLabel(c, name))

	return fmt.Sprintf("%s '%s' deleted.", display.Capitalize(string(c)), name), nil
}

// RenameLocation moves a saved location to a new name.
func (svc *Service) RenameLocation(ctx context.Context, uid string, c Category, from, to string) (string, error) {
	if !c.Valid() {
		return "", categoryError(c)
	}
	if _, err := svc.locateSelf(uid); err != nil {
		return "", err
	}
	if svc.settings.Categories.Get(c).SingleMode {
		return "", newError(KindSingleModeViolation, "Renaming is not available in single %s mode.", c)
	}
	if from == "" || to == "" {
		return "", newError(KindInvalidArgument, "Both the old and the new name are required.")
	}
	if from == to {
		return "", newError(KindInvalidArgument, "The new name is the same as the old one.")
	}

	ps := svc.states.Get(uid)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	set := ps.record.Set(c)
	pos, ok := set[from]
	if !ok {
		return "", notFoundLocation(c, from)
	}
	if _, exists := set[to]; exists {
		return "", newError(KindAlreadyExists, "You already have a %s named '%s'.", c, to)
	}

	ps.record.remove(c, from)
	ps.record.put(c, to, pos)
	svc.states.persist(ctx, ps)
	svc.audit("%s renamed %s to '%s'", svc.nameOf(uid), locationLabel(c, from), to)

	return fmt.Sprintf("%s '%s' renamed to '%s'.", display.Capitalize(string(c)), from, to), nil
}

// DeleteAllLocations clears a whole category.
func (svc *Service) DeleteAllLocations(ctx context.Context, uid string, c Category) (string, error) {
	if !c.Valid() {
		return "", categoryError(c)
	}
	if _, err := svc.locateSelf(uid); err != nil {
		return "", err
	}

	ps := svc.states.Get(uid)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	n := len(ps.record.Set(c))
	if n == 0 {
		return "", newError(KindNotFound, "You have no %s to delete.", c.Plural())
	}
	delete(ps.record.Locations, c)
	svc.states.persist(ctx, ps)
	svc.audit("%s deleted all %d %s", svc.nameOf(uid), n, c.Plural())

	return fmt.Sprintf("Deleted %d %s.", n, pluralize(c, n)), nil
}

// ListLocations names every saved location in the category.
func (svc *Service) ListLocations(uid string, c Category) (string, error) {
	set, err := svc.snapshot(uid, c)
	if err != nil {
		return "", err
	}
	if len(set) == 0 {
		return fmt.Sprintf("You have no %s. Use set%s to save one.", c.Plural(), c), nil
	}

	limit := ""
	if m := svc.settings.Categories.Get(c).EffectiveMax(); m > 0 {
		limit = fmt.Sprintf("/%d", m)
	}
	return fmt.Sprintf("Your %s (%d%s): %s", c.Plural(), len(set), limit, strings.Join(sortedNames(set), ", ")), nil
}

// LocationInfo lists every saved location with its coordinates.
func (svc *Service) LocationInfo(uid string, c Category) (string, error) {
	set, err := svc.snapshot(uid, c)
	if err != nil {
		return "", err
	}
	if len(set) == 0 {
		return fmt.Sprintf("You have no %s.", c.Plural()), nil
	}

	lines := []string{fmt.Sprintf("Your %s:", c.Plural())}
	for _, name := range sortedNames(set) {
		lines = append(lines, fmt.Sprintf("  %s: %s", name, set[name].Rounded()))
	}
	return strings.Join(lines, "\n"), nil
}

// ListLocationCosts prices a trip to every saved location from where uid
// stands now.
func (svc *Service) ListLocationCosts(uid string, c Category) (string, error) {
	if !c.Valid() {
		return "", categoryError(c)
	}
	from, err := svc.locateSelf(uid)
	if err != nil {
		return "", err
	}

	ps := svc.states.Get(uid)
	ps.mu.Lock()
	set := ps.record.clone().Set(c)
	balance := ps.record.Credit
	ps.mu.Unlock()

	if len(set) == 0 {
		return fmt.Sprintf("You have no %s.", c.Plural()), nil
	}

	cs := svc.settings.Categories.Get(c)
	lines := []string{fmt.Sprintf("Costs to your %s (walk credit %d):", c.Plural(), BalanceDisplay(balance))}
	for _, name := range sortedNames(set) {
		dist := Distance(from, set[name])
		lines = append(lines, "  "+svc.costLine(name, dist, cs.CostFor(name), balance))
	}
	return strings.Join(lines, "\n"), nil
}

// costLine renders one priced destination.
func (svc *Service) costLine(name string, dist int, cost ActionCost, balance float64) string {
	needed, billed := svc.settings.price(dist, cost)
	if !billed {
		return fmt.Sprintf("%s: %d blocks, free", name, dist)
	}
	line := fmt.Sprintf("%s: %d blocks, cost %d", name, dist, CostDisplay(needed))
	if balance < needed {
		line += " [NOT ENOUGH]"
	}
	return line
}

func (svc *Service) snapshot(uid string, c Category) (map[string]Position, error) {
	if !c.Valid() {
		return nil, categoryError(c)
	}
	if _, err := svc.locateSelf(uid); err != nil {
		return nil, err
	}
	return svc.states.Get(uid).Record().Set(c), nil
}

func pluralize(c Category, n int) string {
	if n == 1 {
		return string(c)
	}
	return c.Plural()
}
