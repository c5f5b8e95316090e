// Package demo provides the sample catalog the autowire CLI operates on.
//
// The catalog models a small notification service: a Service built by
// constructor from a Store, a Mailer and a retry count; a Mailer built by
// field injection from a Logger; and SendReport, an invocable command.
// Store and Clock are interfaces wired by [Wire].
package demo

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/autowire/pkg/inject"
	"github.com/matzehuels/autowire/pkg/introspect"
)

// Type identifiers of the demo catalog.
const (
	ClockID       = "demo.Clock"
	SystemClockID = "demo.SystemClock"
	LoggerID      = "demo.Logger"
	StoreID       = "demo.Store"
	MemoryStoreID = "demo.MemoryStore"
	MailerID      = "demo.Mailer"
	ServiceID     = "demo.Service"
	SendReportID  = "demo.SendReport"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Logger prefixes the lines it records.
type Logger struct {
	Prefix string `inject:"prefix" default:"demo"`
	lines  []string
}

// Printf records a formatted line.
func (l *Logger) Printf(format string, args ...any) {
	l.lines = append(l.lines, l.Prefix+": "+fmt.Sprintf(format, args...))
}

// Lines returns the recorded lines.
func (l *Logger) Lines() []string { return l.lines }

// Store keeps delivered messages.
type Store interface {
	Put(recipient, body string)
	Count() int
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	Capacity int `inject:"capacity" default:"100"`
	messages []string
}

// Put records a message, dropping the oldest beyond Capacity.
func (s *MemoryStore) Put(recipient, body string) {
	s.messages = append(s.messages, recipient+": "+body)
	if s.Capacity > 0 && len(s.messages) > s.Capacity {
		s.messages = s.messages[len(s.messages)-s.Capacity:]
	}
}

// Count returns the number of stored messages.
func (s *MemoryStore) Count() int { return len(s.messages) }

// Mailer formats and logs outgoing mail.
type Mailer struct {
	Sender string  `inject:"sender" default:"noreply@example.com"`
	Logger *Logger `inject:"logger"`
	Clock  Clock   `inject:"clock,optional"`
}

// Send formats a message from the configured sender.
func (m *Mailer) Send(recipient, subject string) string {
	msg := fmt.Sprintf("from %s to %s: %s", m.Sender, recipient, subject)
	if m.Clock != nil {
		msg += " at " + m.Clock.Now().Format(time.DateOnly)
	}
	m.Logger.Printf("%s", msg)
	return msg
}

// Service delivers reports through a Mailer and records them in a Store.
type Service struct {
	Store   Store
	Mailer  *Mailer
	Retries int
}

// NewService builds a Service.
func NewService(store Store, mailer *Mailer, retries int) (*Service, error) {
	if retries < 0 {
		return nil, fmt.Errorf("retries must not be negative, got %d", retries)
	}
	return &Service{Store: store, Mailer: mailer, Retries: retries}, nil
}

// Deliver sends subject to every recipient and returns the sent messages.
func (s *Service) Deliver(subject string, recipients ...string) []string {
	var sent []string
	for _, r := range recipients {
		msg := s.Mailer.Send(r, subject)
		s.Store.Put(r, msg)
		sent = append(sent, msg)
	}
	return sent
}

// SendReport is an invocable command delivering the daily report.
type SendReport struct {
	Service *Service `inject:"service"`
}

// Invoke delivers the report to recipients, comma separated.
func (c *SendReport) Invoke(recipients string, subject string) string {
	sent := c.Service.Deliver(subject, strings.Split(recipients, ",")...)
	return strings.Join(sent, "\n")
}

// Catalog registers the demo types.
func Catalog() *introspect.Catalog {
	c := introspect.NewCatalog()
	c.MustRegister((*Clock)(nil), introspect.WithID(ClockID))
	c.MustRegister(SystemClock{}, introspect.WithID(SystemClockID))
	c.MustRegister((*Logger)(nil), introspect.WithID(LoggerID))
	c.MustRegister((*Store)(nil), introspect.WithID(StoreID))
	c.MustRegister((*MemoryStore)(nil), introspect.WithID(MemoryStoreID))
	c.MustRegister((*Mailer)(nil), introspect.WithID(MailerID))
	c.MustRegister((*Service)(nil),
		introspect.WithID(ServiceID),
		introspect.WithConstructor(NewService, "store", "mailer", "retries"),
		introspect.WithDefaults(map[string]any{"retries": 3}),
	)
	c.MustRegister((*SendReport)(nil),
		introspect.WithID(SendReportID),
		introspect.WithMethod(introspect.InvokeMethod, "recipients", "subject"),
		introspect.WithMethodDefaults(introspect.InvokeMethod, map[string]any{"subject": "daily report"}),
	)
	return c
}

// Wire binds the demo interfaces: Store to MemoryStore and Clock to a shared
// SystemClock.
func Wire(r *inject.Resolver) {
	r.Alias(StoreID, MemoryStoreID)
	r.Share(SystemClock{}, ClockID)
}
