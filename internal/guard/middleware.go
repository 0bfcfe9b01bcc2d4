// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/taibuivan/talentgate/internal/notice"
	"github.com/taibuivan/talentgate/internal/platform/constants"
	"github.com/taibuivan/talentgate/internal/platform/ctxutil"
	"github.com/taibuivan/talentgate/internal/platform/metrics"
	"github.com/taibuivan/talentgate/internal/platform/respond"
	"github.com/taibuivan/talentgate/internal/session"
)

// Hydrator rebuilds the session of a request (see [session.Provider]).
type Hydrator interface {
	Hydrate(ctx context.Context, request *http.Request) (session.Session, error)
}

// Notifier queues the denial toast for the device.
type Notifier interface {
	Push(ctx context.Context, deviceID string, n notice.Notice) error
}

// Options wires the guard middleware.
type Options struct {
	Policy      Policy
	Hydrator    Hydrator
	Preferences PreferenceStore
	Notices     Notifier

	// Grace bounds session hydration. Zero waits for hydration to finish.
	Grace time.Duration

	Metrics *metrics.Registry
}

// deniedPage is the body served while a denied user waits for the redirect.
type deniedPage struct {
	Decision   Kind   `json:"decision"`
	Notice     string `json:"notice"`
	RedirectTo string `json:"redirect_to"`
	DelayMS    int64  `json:"delay_ms"`
}

/*
Middleware guards every page request.

# Flow
 1. Navigate: public and reserved paths render immediately.
 2. Hydrate the session within the grace period. A timeout evaluates with the
    partial session (claims without profile) instead of hanging.
 3. Apply effects: render the page, 302 to the login page, or queue the
    denial notice and answer with a Refresh header that redirects to the
    dashboard after the denial delay.
*/
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()
			deviceID := ctxutil.GetDeviceID(ctx)
			machine := NewMachine(opts.Policy, DevicePreference{Store: opts.Preferences, DeviceID: deviceID})

			// ── 1. Navigation ─────────────────────────────────────────────────
			effects := machine.Handle(ctx, Navigate{Path: request.URL.Path})
			current := session.Anonymous()

			// ── 2. Hydration ──────────────────────────────────────────────────
			if machine.State() == StateChecking {
				current, effects = hydrate(ctx, opts, machine, request)
			}

			if decision, ok := machine.Decision(); ok && opts.Metrics != nil {
				opts.Metrics.GuardDecisions.WithLabelValues(string(decision.Kind)).Inc()
			}

			// ── 3. Effects ────────────────────────────────────────────────────
			var scheduled *Effect
			for i := range effects {
				effect := effects[i]
				switch effect.Kind {
				case EffectRender:
					next.ServeHTTP(writer, request.WithContext(session.WithSession(ctx, current)))
					return

				case EffectRedirect:
					http.Redirect(writer, request, effect.Location, http.StatusFound)
					return

				case EffectNotice:
					pushNotice(ctx, opts.Notices, deviceID, effect)

				case EffectScheduleRedirect:
					scheduled = &effect
				}
			}

			if scheduled != nil {
				writer.Header().Set(constants.HeaderRefresh, refreshValue(scheduled.Delay, scheduled.Location))
				respond.OK(writer, deniedPage{
					Decision:   KindRedirectDashboard,
					Notice:     DeniedNotice,
					RedirectTo: scheduled.Location,
					DelayMS:    scheduled.Delay.Milliseconds(),
				})
				return
			}

			// Unreachable with a consistent machine, fail closed
			ctxutil.GetLogger(ctx).ErrorContext(ctx, "guard_no_terminal_effect", slog.String("state", machine.State().String()))
			http.Redirect(writer, request, opts.Policy.LoginPath(opts.Policy.DefaultRole), http.StatusFound)
		})
	}
}

func hydrate(ctx context.Context, opts Options, machine *Machine, request *http.Request) (session.Session, []Effect) {
	hydrationCtx := ctx
	if opts.Grace > 0 {
		var cancel context.CancelFunc
		hydrationCtx, cancel = context.WithTimeout(ctx, opts.Grace)
		defer cancel()
	}

	current, err := opts.Hydrator.Hydrate(hydrationCtx, request)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "guard_hydration_grace_elapsed", slog.Any("error", err))
		return current, machine.Handle(ctx, GraceElapsed{Session: current, Seq: machine.Seq()})
	}
	return current, machine.Handle(ctx, Hydrated{Session: current})
}

func pushNotice(ctx context.Context, notices Notifier, deviceID string, effect Effect) {
	if notices == nil || deviceID == "" {
		return
	}

	err := notices.Push(ctx, deviceID, notice.Notice{
		Level:     notice.LevelWarning,
		Message:   effect.Notice,
		Path:      effect.Path,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "guard_notice_push_failed", slog.Any("error", err))
	}
}

// refreshValue renders a Refresh header. Browsers only honour whole seconds.
func refreshValue(delay time.Duration, location string) string {
	seconds := int64(math.Ceil(delay.Seconds()))
	return strconv.FormatInt(seconds, 10) + "; url=" + location
}
