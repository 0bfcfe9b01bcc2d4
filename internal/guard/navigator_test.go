// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/talentgate/internal/guard"
	"github.com/taibuivan/talentgate/internal/platform/clock"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/session"
)

const grace = 150 * time.Millisecond

func newNavigator(prefs guard.PreferenceReader) (*guard.Navigator, *recordingRenderer, *clock.Fake) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	renderer := &recordingRenderer{}
	return guard.NewNavigator(testPolicy(), prefs, renderer, fake, grace), renderer, fake
}

/*
TestNavigator_GraceElapsedRedirectsAnonymous verifies an anonymous visitor is redirected only after the grace period.
*/
func TestNavigator_GraceElapsedRedirectsAnonymous(t *testing.T) {
	navigator, renderer, fake := newNavigator(nil)
	ctx := context.Background()

	navigator.Navigate(ctx, "/expert/dashboard")
	fake.Advance(grace - time.Millisecond)
	assert.Equal(t, []string{"loading /expert/dashboard"}, renderer.Events())

	fake.Advance(time.Millisecond)
	assert.Equal(t, []string{"loading /expert/dashboard", "redirect /expert/login"}, renderer.Events())
	assert.Equal(t, guard.StateAnonymousRedirecting, navigator.State())
}

/*
TestNavigator_HydrationBeforeGrace verifies hydration resolves the check and disarms the grace timer.
*/
func TestNavigator_HydrationBeforeGrace(t *testing.T) {
	navigator, renderer, fake := newNavigator(nil)
	ctx := context.Background()

	navigator.Navigate(ctx, "/candidate/dashboard")
	navigator.Hydrated(ctx, signedIn(sec.RoleCandidate))
	fake.Advance(time.Second)

	assert.Equal(t, []string{"loading /candidate/dashboard", "render /candidate/dashboard"}, renderer.Events())
	assert.Zero(t, fake.Pending())
}

/*
TestNavigator_DeniedRedirectAfterDelay verifies the denial scenario: toast first, redirect after the delay.
*/
func TestNavigator_DeniedRedirectAfterDelay(t *testing.T) {
	navigator, renderer, fake := newNavigator(nil)
	ctx := context.Background()
	navigator.Hydrated(ctx, signedIn(sec.RoleCustomer))

	navigator.Navigate(ctx, "/admin/dashboard")
	assert.Equal(t, []string{"loading /admin/dashboard", "notice"}, renderer.Events())

	fake.Advance(denialDelay - time.Millisecond)
	assert.Len(t, renderer.Events(), 2)

	fake.Advance(time.Millisecond)
	assert.Equal(t, []string{"loading /admin/dashboard", "notice", "redirect /customer/browse-engineers"}, renderer.Events())
}

/*
TestNavigator_NewNavigationCancelsStaleRedirect verifies a valid navigation during the delay wins.
*/
func TestNavigator_NewNavigationCancelsStaleRedirect(t *testing.T) {
	navigator, renderer, fake := newNavigator(nil)
	ctx := context.Background()
	navigator.Hydrated(ctx, signedIn(sec.RoleCustomer))

	navigator.Navigate(ctx, "/admin/dashboard")
	navigator.Navigate(ctx, "/customer/browse-engineers")
	fake.Advance(5 * time.Second)

	assert.Equal(t, []string{
		"loading /admin/dashboard",
		"notice",
		"loading /customer/browse-engineers",
		"render /customer/browse-engineers",
	}, renderer.Events())
	assert.Zero(t, fake.Pending())
}

/*
TestNavigator_RedirectMayNavigate verifies a renderer can navigate from inside Redirect.
*/
func TestNavigator_RedirectMayNavigate(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	renderer := &followingRenderer{}
	navigator := guard.NewNavigator(testPolicy(), guard.StaticPreference("engineer"), renderer, fake, grace)
	renderer.navigator = navigator

	navigator.Navigate(context.Background(), "/settings")
	fake.Advance(grace)
	assert.Equal(t, []string{"loading /settings", "redirect /candidate/login", "loading /candidate/login"}, renderer.Events())

	// The login page is checked like any other navigation and renders for anonymous visitors
	fake.Advance(grace)
	assert.Equal(t, "render /candidate/login", renderer.Events()[3])
}

/*
TestNavigator_CloseCancelsTimers verifies nothing fires after Close.
*/
func TestNavigator_CloseCancelsTimers(t *testing.T) {
	navigator, renderer, fake := newNavigator(nil)
	ctx := context.Background()

	navigator.Navigate(ctx, "/expert/dashboard")
	navigator.Close()
	fake.Advance(time.Second)
	navigator.Hydrated(ctx, session.Anonymous())

	assert.Equal(t, []string{"loading /expert/dashboard"}, renderer.Events())
	assert.Zero(t, fake.Pending())
}

// followingRenderer navigates to every redirect target, like a client router.
type followingRenderer struct {
	recordingRenderer
	navigator *guard.Navigator
}

func (r *followingRenderer) Redirect(location string) {
	r.recordingRenderer.Redirect(location)
	r.navigator.Navigate(context.Background(), location)
}
