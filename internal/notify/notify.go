// Package notify announces newly registered complaints to administrators.
// Delivery is best effort: the registry dispatches after the complaint is
// stored and never waits for, or fails because of, a notifier.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// Notifier delivers a single new-complaint announcement.
type Notifier interface {
	Notify(ctx context.Context, protocol, category string) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, protocol, category string) error

func (f Func) Notify(ctx context.Context, protocol, category string) error {
	return f(ctx, protocol, category)
}

// Named labels a Notifier for logs and joined errors.
type Named struct {
	Name string
	Notifier
}

// Multi fans one announcement out to several notifiers. They run
// concurrently, so a stalled channel does not hold back the others. Failures
// are joined in the order the notifiers are listed.
type Multi []Named

func (m Multi) Notify(ctx context.Context, protocol, category string) error {
	errs := make([]error, len(m))
	var wg sync.WaitGroup
	for i, n := range m {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := n.Notify(ctx, protocol, category); err != nil {
				errs[i] = fmt.Errorf("%s: %w", n.Name, err)
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Nop discards announcements.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error { return nil }

// FormatMessage renders the administrator-facing announcement text.
func FormatMessage(protocol, category string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nova Manifestação Registrada – Protocolo %s\n\n", protocol)
	fmt.Fprintf(&b, "Protocolo: %s\n", protocol)
	fmt.Fprintf(&b, "Tipo: %s\n\n", capitalize(category))
	b.WriteString("Acesse o painel administrativo.")
	return b.String()
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
