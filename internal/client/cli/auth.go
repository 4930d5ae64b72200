package cli

import (
	"context"
	"fmt"

	"github.com/olegsv/lumacli/internal/client/api"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and authenticates through the coordinator.
// The outcome message follows the error taxonomy: auth failures print the
// backend's text, network failures a connectivity hint, validation failures
// the offending field.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer WipeBytes(password)

	if err := a.coordinator.Login(ctx, email, string(password)); err != nil {
		fmt.Fprintln(a.out, friendlyMessage(err))
		return nil
	}

	snap := a.coordinator.Current()
	fmt.Fprintf(a.out, "Welcome back, %s!\n", snap.User.FullName())
	return nil
}

// Register prompts for the sign-up fields and runs the compound
// register-then-login flow.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	firstName, err := getSimpleText(a.reader, "First name", a.out)
	if err != nil {
		return err
	}
	lastName, err := getSimpleText(a.reader, "Last name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer WipeBytes(password)

	req := api.RegisterRequest{
		Email:     email,
		Password:  string(password),
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := a.coordinator.Register(ctx, req); err != nil {
		fmt.Fprintln(a.out, friendlyMessage(err))
		return nil
	}

	fmt.Fprintln(a.out, "Account created, you are signed in.")
	return nil
}

// Logout never fails from the user's perspective.
func (a *App) Logout(ctx context.Context) {
	a.coordinator.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out.")
}

// WhoAmI prints the cached profile from the current snapshot.
func (a *App) WhoAmI(ctx context.Context) {
	snap := a.coordinator.Current()
	if !snap.Authenticated {
		fmt.Fprintln(a.out, "Not signed in.")
		return
	}

	u := snap.User
	fmt.Fprintf(a.out, "%s <%s>\n", u.FullName(), u.Email)
	if u.Location != "" {
		fmt.Fprintf(a.out, "Location: %s\n", u.Location)
	}
	if u.Timezone != "" {
		fmt.Fprintf(a.out, "Timezone: %s\n", u.Timezone)
	}
	if !u.Verified {
		fmt.Fprintln(a.out, "Email not verified yet.")
	}
}

// Refresh re-fetches the profile for the active session.
func (a *App) Refresh(ctx context.Context) {
	if err := a.coordinator.Refresh(ctx); err != nil {
		fmt.Fprintln(a.out, friendlyMessage(err))
		return
	}
	fmt.Fprintln(a.out, "Profile refreshed.")
}

// Health reports backend reachability on demand.
func (a *App) Health(ctx context.Context) {
	if a.manager.Health(ctx) {
		fmt.Fprintln(a.out, "Server is reachable.")
	} else {
		fmt.Fprintln(a.out, "Server appears to be offline.")
	}
}
