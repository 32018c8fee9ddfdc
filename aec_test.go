package aec

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pion/logging"

	"github.com/mrjoshuak/go-aec/internal/entropy"
)

// captureLogs returns a factory that writes every level to buf.
func captureLogs(buf *bytes.Buffer, level logging.LogLevel) logging.LoggerFactory {
	return &logging.DefaultLoggerFactory{
		Writer:          buf,
		DefaultLogLevel: level,
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"default", *DefaultOptions(), false},
		{"zero value", Options{}, false},
		{"fast with budget", Options{Backend: FastEstimate, Budget: 500}, false},
		{"very fast", Options{Backend: VeryFastEstimate, Workers: 4}, false},
		{"unknown backend", Options{Backend: BackendKind(5)}, true},
		{"negative backend", Options{Backend: BackendKind(-1)}, true},
		{"negative budget", Options{Backend: FastEstimate, Budget: -1}, true},
		{"exact with budget", Options{Backend: Exact, Budget: 100}, true},
		{"negative workers", Options{Workers: -2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("Validate() = %v, want it to wrap ErrInvalidOptions", err)
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if o.Backend != Exact {
		t.Errorf("Backend = %s, want %s", o.Backend, Exact)
	}
	if o.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", o.Workers)
	}
	if o.Budget != 0 {
		t.Errorf("Budget = %d, want 0", o.Budget)
	}
}

func TestNewEncoder_InvalidOptions(t *testing.T) {
	e, err := NewEncoder(nil, &Options{Backend: Exact, Budget: 10})
	if e != nil || !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("NewEncoder() = %v, %v; want nil, ErrInvalidOptions", e, err)
	}
}

func TestDefaultLoggerFactory(t *testing.T) {
	f, ok := defaultLoggerFactory().(*logging.DefaultLoggerFactory)
	if !ok {
		t.Fatal("default factory is not a *logging.DefaultLoggerFactory")
	}
	if f.DefaultLogLevel != logging.LogLevelWarn {
		t.Errorf("DefaultLogLevel = %s, want %s", f.DefaultLogLevel, logging.LogLevelWarn)
	}
	if newLogger(nil) == nil {
		t.Error("newLogger(nil) returned nil")
	}
}

func TestBackendConstants(t *testing.T) {
	if Exact != entropy.Exact || FastEstimate != entropy.FastEstimate || VeryFastEstimate != entropy.VeryFastEstimate {
		t.Error("backend constants do not match the coder backends")
	}
	if got := VeryFastEstimate.String(); !strings.Contains(got, "very-fast") {
		t.Errorf("String() = %q", got)
	}
}
