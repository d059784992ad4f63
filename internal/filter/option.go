package filter

import (
	"strconv"
	"strings"
)

// AllSentinel is the query value callers send to mean "no restriction".
const AllSentinel = "all"

// Option is a predicate value that is either set (Some) or unrestricted (None).
type Option[T comparable] struct {
	value T
	set   bool
}

func Some[T comparable](value T) Option[T] {
	return Option[T]{value: value, set: true}
}

func None[T comparable]() Option[T] {
	return Option[T]{}
}

func (o Option[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Option[T]) IsSet() bool {
	return o.set
}

// Matches is true when the option is unset or equals v.
func (o Option[T]) Matches(v T) bool {
	if !o.set {
		return true
	}
	return o.value == v
}

// IsUnrestricted reports whether a raw query value means "no restriction".
func IsUnrestricted(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return trimmed == "" || strings.EqualFold(trimmed, AllSentinel)
}

// ParseString maps "", "all" to None and anything else to Some(trimmed).
func ParseString(raw string) Option[string] {
	if IsUnrestricted(raw) {
		return None[string]()
	}
	return Some(strings.TrimSpace(raw))
}

// ParseInt maps "", "all" to None; other values must be integers.
func ParseInt(raw string) (Option[int], error) {
	if IsUnrestricted(raw) {
		return None[int](), nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return None[int](), err
	}
	return Some(parsed), nil
}
