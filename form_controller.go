package authpage

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultSubmitDelay is the pause between submit and the authenticate call
const DefaultSubmitDelay = time.Second

// Form is the controller behind an auth page. It owns the field values,
// the errors derived from them and which fields were touched.
type Form struct {
	mu           sync.Mutex
	pageContext  PageContext
	authenticate AuthenticateFunc
	clock        clockwork.Clock
	delay        time.Duration
	logger       Logger

	values     FormValues
	errors     FormErrors
	touched    map[Field]bool
	submitting bool
}

// FormOption configures a Form
type FormOption func(*Form)

// WithClock replaces the clock used for the submit delay
func WithClock(clock clockwork.Clock) FormOption {
	return func(f *Form) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// WithSubmitDelay overrides DefaultSubmitDelay, zero disables the wait
func WithSubmitDelay(d time.Duration) FormOption {
	return func(f *Form) {
		if d >= 0 {
			f.delay = d
		}
	}
}

// WithFormLogger sets the form logger
func WithFormLogger(logger Logger) FormOption {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInitialValues seeds the form, errors are computed from them
func WithInitialValues(values FormValues) FormOption {
	return func(f *Form) {
		f.values = values
	}
}

// NewForm returns an empty form for pageContext. authenticate may be nil,
// in which case a submit only waits and resets.
func NewForm(pageContext PageContext, authenticate AuthenticateFunc, opts ...FormOption) *Form {
	f := &Form{
		pageContext:  pageContext,
		authenticate: authenticate,
		clock:        clockwork.NewRealClock(),
		delay:        DefaultSubmitDelay,
		logger:       defaultLogger(),
		touched:      map[Field]bool{},
	}

	for _, opt := range opts {
		opt(f)
	}

	f.errors = Validate(f.values, f.pageContext)
	return f
}

func (f *Form) PageContext() PageContext {
	return f.pageContext
}

// Change sets a field value and recomputes every error
func (f *Form) Change(field Field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values = f.values.Set(field, value)
	f.errors = Validate(f.values, f.pageContext)
}

// Blur marks a field as touched so its error becomes visible
func (f *Form) Blur(field Field) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.touched[field] = true
}

func (f *Form) Values() FormValues {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Errors returns a copy of the current errors, touched or not
func (f *Form) Errors() FormErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyErrors()
}

func (f *Form) Touched(field Field) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched[field]
}

// VisibleError returns the error for field only once it was touched
func (f *Form) VisibleError(field Field) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.touched[field] {
		return ""
	}
	return f.errors[field]
}

// VisibleErrors collects VisibleError for every field that has one
func (f *Form) VisibleErrors() FormErrors {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := FormErrors{}
	for field, msg := range f.errors {
		if f.touched[field] {
			out[field] = msg
		}
	}
	return out
}

func (f *Form) IsValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errors) == 0
}

func (f *Form) IsSubmitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Submit touches every field and validates. Valid forms wait the submit
// delay, dispatch authenticate once and reset to the initial state. The
// wait does not observe ctx, a started submission always completes.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}

	for _, field := range Fields {
		f.touched[field] = true
	}
	f.errors = Validate(f.values, f.pageContext)
	if len(f.errors) > 0 {
		verr := &ValidationError{Errors: f.copyErrors()}
		f.mu.Unlock()
		return verr
	}

	f.submitting = true
	values := f.values
	f.mu.Unlock()

	if f.delay > 0 {
		<-f.clock.After(f.delay)
	}

	if f.authenticate != nil {
		if err := f.authenticate(ctx, values.Email, values.Username, values.Password, f.pageContext); err != nil {
			f.logger.Debug("authenticate dispatched with error", "context", f.pageContext, "error", err)
		}
	}

	f.mu.Lock()
	f.values = FormValues{}
	f.errors = FormErrors{}
	f.touched = map[Field]bool{}
	f.submitting = false
	f.mu.Unlock()

	return nil
}

func (f *Form) copyErrors() FormErrors {
	out := make(FormErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}
