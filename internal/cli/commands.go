package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/safecheck/internal/common"
	"github.com/dmitrijs2005/safecheck/internal/contactsimport"
	"github.com/dmitrijs2005/safecheck/internal/deadline"
	"github.com/dmitrijs2005/safecheck/internal/engine"
	"github.com/dmitrijs2005/safecheck/internal/models"
)

// describe turns engine errors into short user-facing text.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrNotArmed):
		return "the check-in timer is not running yet"
	case errors.Is(err, common.ErrIllegalTransition):
		return "that is not possible right now (" + err.Error() + ")"
	case errors.Is(err, common.ErrPersistence):
		return "could not save your settings, nothing was changed"
	default:
		return err.Error()
	}
}

func (a *App) Start(ctx context.Context) error {
	if err := a.engine.AcknowledgeWelcome(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, nextStep(a.phase()))
	return nil
}

func (a *App) Identity(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Your name:", a.out)
	if err != nil {
		return err
	}
	phone, err := GetSimpleText(a.reader, "Your phone (optional):", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Your email (optional):", a.out)
	if err != nil {
		return err
	}

	if err := a.engine.CompleteIdentity(ctx, models.User{Name: name, Phone: phone, Email: email}); err != nil {
		return err
	}
	fmt.Fprintln(a.out, nextStep(a.phase()))
	return nil
}

// readContacts collects contacts until an empty name is entered.
func (a *App) readContacts() ([]models.Contact, error) {
	var out []models.Contact
	for {
		name, err := GetSimpleText(a.reader, fmt.Sprintf("Contact #%d name (empty to finish):", len(out)+1), a.out)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return out, nil
		}
		phone, err := GetSimpleText(a.reader, "Phone:", a.out)
		if err != nil {
			return nil, err
		}
		email, err := GetSimpleText(a.reader, "Email:", a.out)
		if err != nil {
			return nil, err
		}
		rel, err := GetSimpleText(a.reader, "Relationship:", a.out)
		if err != nil {
			return nil, err
		}
		sms, err := GetYesNo(a.reader, "Send SMS alerts to this contact?", a.out)
		if err != nil {
			return nil, err
		}

		c := models.Contact{Name: name, Phone: phone, Email: email, Relationship: rel, SMSAlertsEnabled: sms}
		if !c.IsUsable() {
			fmt.Fprintln(a.out, "Note: this contact has no phone or valid email and cannot be alerted.")
		}
		out = append(out, c)
	}
}

func (a *App) Contacts(ctx context.Context) error {
	contacts, err := a.readContacts()
	if err != nil {
		return err
	}
	if err := a.engine.SetContacts(ctx, contacts); err != nil {
		return err
	}
	fmt.Fprint(a.out, renderContacts(contacts))
	fmt.Fprintln(a.out, nextStep(a.phase()))
	return nil
}

// Template writes an empty .xlsx contact sheet to path for the user to fill
// in and import. An existing file is never overwritten.
func (a *App) Template(_ context.Context, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fmt.Errorf("%w: template must be an .xlsx file", common.ErrValidation)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if err := contactsimport.WriteTemplate(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Template written to %s. Fill it in, then run: import %s\n", path, path)
	return nil
}

// Import loads contacts from a file. While armed it replaces the contact
// list and keeps the interval, re-arming from now.
func (a *App) Import(ctx context.Context, path string) error {
	imp, err := contactsimport.ForFile(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	contacts, err := imp.Import(f)
	if err != nil {
		return err
	}

	snap := a.engine.Snapshot()
	if snap.Phase.IsArmed() {
		err = a.engine.UpdateSettings(ctx, contacts, snap.State.PeriodHours)
	} else {
		err = a.engine.SetContacts(ctx, contacts)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d contact(s), %d usable.\n", len(contacts), models.UsableCount(contacts))
	fmt.Fprint(a.out, renderContacts(contacts))
	return nil
}

// readPeriod accepts a preset in hours or "<days>d <hours>h".
func (a *App) readPeriod(current int) (int, error) {
	presets := make([]string, 0, len(deadline.PeriodPresets))
	for _, p := range deadline.PeriodPresets {
		presets = append(presets, fmt.Sprint(p))
	}
	s, err := GetSimpleText(a.reader,
		fmt.Sprintf("Check-in interval in hours (%s), or e.g. '2d 6h' [%d]:", strings.Join(presets, ", "), current),
		a.out)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return current, nil
	}
	return parsePeriod(s)
}

func parsePeriod(s string) (int, error) {
	bad := fmt.Errorf("%w: cannot read interval %q", common.ErrValidation, s)

	var days, hours int
	for _, f := range strings.Fields(strings.ToLower(s)) {
		unit := f[len(f)-1]
		num := f
		if unit == 'd' || unit == 'h' {
			num = f[:len(f)-1]
		} else {
			unit = 'h'
		}
		n, err := strconv.Atoi(num)
		if err != nil || n < 0 || n > deadline.MaxPeriodHours {
			return 0, bad
		}
		if unit == 'd' {
			days += n
		} else {
			hours += n
		}
	}
	if days > deadline.MaxPeriodHours/24 || hours > deadline.MaxPeriodHours-days*24 {
		return 0, bad
	}
	return deadline.PeriodFromDaysHours(days, hours), nil
}

func (a *App) Period(ctx context.Context) error {
	suggest := a.engine.Snapshot().State.PeriodHours
	if a.defaultPeriod > 0 {
		suggest = a.defaultPeriod
	}
	hours, err := a.readPeriod(suggest)
	if err != nil {
		return err
	}
	if err := a.engine.SetPeriod(ctx, hours); err != nil {
		return err
	}
	fmt.Fprintln(a.out, renderStatus(a.engine.Snapshot(), a.color))
	return nil
}

func (a *App) CheckIn(ctx context.Context) error {
	if err := a.engine.CheckIn(ctx); err != nil {
		return err
	}
	s := a.engine.Snapshot()
	msg := fmt.Sprintf("Checked in at %s. Next check-in due in %s.", a.clock.Now().Format("15:04"), s.Parts)
	fmt.Fprintln(a.out, paint(a.color, ansiGreen, msg))
	return nil
}

func (a *App) Dismiss(ctx context.Context) error {
	if a.phase() != engine.AlertFired {
		fmt.Fprintln(a.out, "No alert to dismiss; checking in instead.")
	}
	if err := a.engine.DismissAlert(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Alert dismissed. Timer restarted.")
	return nil
}

func (a *App) Status(context.Context) error {
	fmt.Fprintln(a.out, renderStatus(a.engine.Snapshot(), a.color))
	return nil
}

// Settings edits contacts and interval of an armed setup.
func (a *App) Settings(ctx context.Context) error {
	snap := a.engine.Snapshot()
	if !snap.Phase.IsArmed() {
		return fmt.Errorf("%w: finish setup first", common.ErrNotArmed)
	}

	fmt.Fprint(a.out, renderContacts(snap.State.Contacts))
	contacts := snap.State.Contacts
	replace, err := GetYesNo(a.reader, "Replace contacts?", a.out)
	if err != nil {
		return err
	}
	if replace {
		if contacts, err = a.readContacts(); err != nil {
			return err
		}
	}

	days, err := GetInt(a.reader, "Interval days", snap.State.PeriodHours/24, a.out)
	if err != nil {
		return err
	}
	hours, err := GetInt(a.reader, "Interval hours", snap.State.PeriodHours%24, a.out)
	if err != nil {
		return err
	}

	if days > deadline.MaxPeriodHours/24 || hours > deadline.MaxPeriodHours {
		return fmt.Errorf("%w: interval is too long", common.ErrValidation)
	}
	if err := a.engine.UpdateSettings(ctx, contacts, deadline.PeriodFromDaysHours(days, hours)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Settings saved. Timer restarted.")
	return nil
}

func (a *App) Reset(ctx context.Context) error {
	ok, err := GetYesNo(a.reader, "Erase your identity, contacts and timer?", a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.engine.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All data erased.")
	fmt.Fprintln(a.out, nextStep(a.phase()))
	return nil
}
