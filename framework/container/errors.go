package container

import (
	"fmt"
	"strings"
)

// Error taxonomy for the container. Every failure mode gets its own typed
// error carrying enough context to diagnose it; callers match with errors.As.
// None of these is ever wrapped in fmt.Errorf by the container itself.

var (
	_ error = (*InvalidServiceError)(nil)
	_ error = (*NotFoundError)(nil)
	_ error = (*CircularDependencyError)(nil)
	_ error = (*SecurityViolationError)(nil)
	_ error = (*CannotResolveError)(nil)
	_ error = (*TagNotFoundError)(nil)
	_ error = (*ConfigurationError)(nil)
)

// InvalidServiceError indicates a malformed service id, tag, or context
// string, or a concrete value the container cannot turn into an instance.
type InvalidServiceError struct {
	ID     string
	Reason string
}

func (e *InvalidServiceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("container: invalid service id %q: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("container: invalid service id %q", e.ID)
}

// NotFoundError indicates an id with no binding, instance, lazy record, or
// described type. Suggestions holds up to five similarity-ranked registered
// ids for "did you mean" output.
type NotFoundError struct {
	ID          string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "container: no binding registered for %q", e.ID)
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, s := range e.Suggestions {
			fmt.Fprintf(&b, "  • %s\n", s)
		}
	}
	return b.String()
}

// CircularDependencyError indicates a cycle detected during resolution.
// Chain lists the ids under construction in order, the offending id last.
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("container: circular dependency: %s", strings.Join(e.Chain, " -> "))
}

// SecurityViolationError indicates a described type failed the safety
// predicate and was refused for auto-wiring.
type SecurityViolationError struct {
	ID     string
	Reason string
}

func (e *SecurityViolationError) Error() string {
	return fmt.Sprintf("container: refusing to build %q: %s", e.ID, e.Reason)
}

// CannotResolveError indicates a constructor parameter with no satisfiable
// source: no directive matched, the declared type is not resolvable, and no
// default was declared. It is also raised for non-instantiable descriptors
// and failed GiveWhen predicates.
type CannotResolveError struct {
	Param   string
	Context string
	Reason  string
}

func (e *CannotResolveError) Error() string {
	switch {
	case e.Param != "" && e.Context != "":
		return fmt.Sprintf("container: cannot resolve parameter %q of %q: %s", e.Param, e.Context, e.Reason)
	case e.Context != "":
		return fmt.Sprintf("container: cannot resolve %q: %s", e.Context, e.Reason)
	default:
		return fmt.Sprintf("container: cannot resolve: %s", e.Reason)
	}
}

// TagNotFoundError indicates a required tag directive matched no services.
type TagNotFoundError struct {
	Tag string
}

func (e *TagNotFoundError) Error() string {
	return fmt.Sprintf("container: no services tagged %q", e.Tag)
}

// ConfigurationError wraps a service-provider registration failure.
// Core resolution never raises it.
type ConfigurationError struct {
	Provider string
	Cause    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("container: provider %s: %v", e.Provider, e.Cause)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }
