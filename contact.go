package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// ContactForm is what a visitor types into the contact section.
type ContactForm struct {
	Name    string `json:"name" form:"name" binding:"required"`
	Email   string `json:"email" form:"email" binding:"required"`
	Message string `json:"message" form:"message" binding:"required"`
}

type SubmissionState int

const (
	StateIdle SubmissionState = iota
	StateSending
)

func (s SubmissionState) String() string {
	if s == StateSending {
		return "sending"
	}
	return "idle"
}

type SubmissionResult int

const (
	ResultSuccess SubmissionResult = iota
	ResultFailure
)

func (r SubmissionResult) String() string {
	if r == ResultSuccess {
		return "success"
	}
	return "failure"
}

var (
	ErrSubmissionInFlight = errors.New("contact: submission already in flight")
	ErrUnknownField       = errors.New("contact: unknown form field")
)

// RelayError is returned when the form relay answers with a non-2xx status.
type RelayError struct {
	StatusCode int
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("contact: relay rejected submission with status %d", e.StatusCode)
}

// ContactRelay posts contact forms to a third-party form-relay endpoint.
type ContactRelay struct {
	endpoint string
	client   *http.Client
}

func NewContactRelay(endpoint string, client *http.Client) *ContactRelay {
	if client == nil {
		client = &http.Client{}
	}
	return &ContactRelay{
		endpoint: endpoint,
		client:   client,
	}
}

// Deliver issues exactly one POST for form. Once issued the request is not
// cancelled by ctx; it runs until the transport completes or fails. The
// response body is drained and never parsed. Nothing is logged.
func (r *ContactRelay) Deliver(ctx context.Context, form ContactForm) error {
	body, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("contact: encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("contact: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("contact: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RelayError{StatusCode: resp.StatusCode}
	}
	return nil
}

// Deliverer is satisfied by ContactRelay; tests swap in their own.
type Deliverer interface {
	Deliver(ctx context.Context, form ContactForm) error
}

// ContactSession owns one page session's form and submission state.
type ContactSession struct {
	mu    sync.Mutex
	form  ContactForm
	state SubmissionState
	relay Deliverer
}

func NewContactSession(relay Deliverer) *ContactSession {
	return &ContactSession{relay: relay}
}

func (s *ContactSession) Form() ContactForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *ContactSession) State() SubmissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetField writes a single field, mirroring per-keystroke input updates.
func (s *ContactSession) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch name {
	case "name":
		s.form.Name = value
	case "email":
		s.form.Email = value
	case "message":
		s.form.Message = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Fill replaces the whole form. It is refused while a submission is in
// flight so the pending outcome cannot wipe newer input.
func (s *ContactSession) Fill(form ContactForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSending {
		return ErrSubmissionInFlight
	}
	s.form = form
	return nil
}

// PendingSubmission resolves exactly once with the outcome of a submission.
type PendingSubmission struct {
	done   chan struct{}
	result SubmissionResult
	err    error
}

func (p *PendingSubmission) Done() <-chan struct{} { return p.done }

// Wait blocks until the submission resolves.
func (p *PendingSubmission) Wait() SubmissionResult {
	<-p.done
	return p.result
}

// Err is the underlying delivery error, nil on success. Only valid after Done.
func (p *PendingSubmission) Err() error {
	<-p.done
	return p.err
}

// SubmitAsync moves the session to Sending and dispatches the current form.
// On success the form is cleared; on failure it is kept so the visitor can
// resubmit. Either way the session returns to Idle before the pending
// submission resolves.
func (s *ContactSession) SubmitAsync(ctx context.Context) (*PendingSubmission, error) {
	return s.dispatch(ctx, nil)
}

// SubmitFormAsync stores form and dispatches it in one step. When a
// submission is already in flight the form is left untouched.
func (s *ContactSession) SubmitFormAsync(ctx context.Context, form ContactForm) (*PendingSubmission, error) {
	return s.dispatch(ctx, &form)
}

func (s *ContactSession) dispatch(ctx context.Context, replace *ContactForm) (*PendingSubmission, error) {
	s.mu.Lock()
	if s.state == StateSending {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if replace != nil {
		s.form = *replace
	}
	s.state = StateSending
	form := s.form
	s.mu.Unlock()

	p := &PendingSubmission{done: make(chan struct{})}
	go func() {
		err := s.relay.Deliver(ctx, form)

		s.mu.Lock()
		if err == nil {
			s.form = ContactForm{}
			p.result = ResultSuccess
		} else {
			p.result = ResultFailure
			p.err = err
		}
		s.state = StateIdle
		s.mu.Unlock()

		close(p.done)
	}()
	return p, nil
}

// SubmitForm is SubmitFormAsync followed by Wait.
func (s *ContactSession) SubmitForm(ctx context.Context, form ContactForm) (SubmissionResult, error) {
	p, err := s.SubmitFormAsync(ctx, form)
	if err != nil {
		return ResultFailure, err
	}
	return p.Wait(), nil
}

// Submit is SubmitAsync followed by Wait.
func (s *ContactSession) Submit(ctx context.Context) (SubmissionResult, error) {
	p, err := s.SubmitAsync(ctx)
	if err != nil {
		return ResultFailure, err
	}
	return p.Wait(), nil
}
