package sdk

import "sync"

// GuardDecision is the outcome of a route check.
type GuardDecision struct {
	Allowed bool
	// RedirectTo is the login path when the route is denied.
	RedirectTo string
	Principal  *Principal
}

// RouteGuard gates protected views on an authenticated session. It
// subscribes to session invalidation so mounted views can re-evaluate
// without polling.
type RouteGuard struct {
	session   *AuthSession
	loginPath string

	mu        sync.Mutex
	watchers  map[int]func(GuardDecision)
	nextID    int
	unsubFunc func()
}

// NewRouteGuard creates a guard redirecting denied checks to loginPath.
func NewRouteGuard(session *AuthSession, loginPath string) *RouteGuard {
	g := &RouteGuard{
		session:   session,
		loginPath: loginPath,
		watchers:  map[int]func(GuardDecision){},
	}
	g.unsubFunc = session.OnEvent(g.onSessionEvent)
	return g
}

// Check evaluates the current session. Denied checks carry the login
// redirect target.
func (g *RouteGuard) Check() GuardDecision {
	principal := g.session.CurrentPrincipal()
	if principal == nil {
		return GuardDecision{Allowed: false, RedirectTo: g.loginPath}
	}
	return GuardDecision{Allowed: true, Principal: principal}
}

// Watch registers a callback invoked with a fresh decision whenever the
// session changes. Returns an unsubscribe function.
func (g *RouteGuard) Watch(fn func(GuardDecision)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.watchers[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.watchers, id)
		g.mu.Unlock()
	}
}

// Close detaches the guard from the session.
func (g *RouteGuard) Close() {
	if g.unsubFunc != nil {
		g.unsubFunc()
	}
}

func (g *RouteGuard) onSessionEvent(event SessionEvent) {
	decision := g.Check()

	g.mu.Lock()
	watchers := make([]func(GuardDecision), 0, len(g.watchers))
	for _, fn := range g.watchers {
		watchers = append(watchers, fn)
	}
	g.mu.Unlock()

	for _, fn := range watchers {
		fn(decision)
	}
}
