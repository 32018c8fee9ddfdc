package aec

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

// rowJob codes n CUs, the last one closing the slice.
func rowJob(n int) Job {
	return func(ctx context.Context, e *Encoder) error {
		for i := 0; i < n; i++ {
			writeCU(e, i == n-1)
		}
		return nil
	}
}

func TestEncodeParallel_MatchesSequential(t *testing.T) {
	jobs := make([]Job, 16)
	for i := range jobs {
		jobs[i] = rowJob(1 + i%5)
	}

	results, err := EncodeParallel(context.Background(), jobs, 4096, &Options{Workers: 4})
	if err != nil {
		t.Fatalf("EncodeParallel() error = %v", err)
	}
	if len(results) != len(jobs) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(jobs))
	}

	for i, job := range jobs {
		e, _ := NewEncoder(make([]byte, 4096), nil)
		if err := job(context.Background(), e); err != nil {
			t.Fatal(err)
		}
		bits := e.Bits()
		want := e.Finish()
		if !bytes.Equal(results[i].Data, want) {
			t.Errorf("job %d: data differs from a sequential encode", i)
		}
		if results[i].Bits != bits {
			t.Errorf("job %d: Bits = %d, want %d", i, results[i].Bits, bits)
		}
	}
}

func TestEncodeParallel_Estimate(t *testing.T) {
	jobs := []Job{rowJob(3), rowJob(3)}
	results, err := EncodeParallel(context.Background(), jobs, 0, &Options{Backend: FastEstimate})
	if err != nil {
		t.Fatalf("EncodeParallel() error = %v", err)
	}
	for i, r := range results {
		if r.Data != nil {
			t.Errorf("job %d: Data = %x, want nil", i, r.Data)
		}
		if r.Bits == 0 {
			t.Errorf("job %d: Bits = 0", i)
		}
	}
	if results[0].Bits != results[1].Bits {
		t.Errorf("identical jobs estimated %d and %d bits", results[0].Bits, results[1].Bits)
	}
}

func TestEncodeParallel_JobError(t *testing.T) {
	errBoom := errors.New("boom")
	var ran atomic.Int32
	jobs := make([]Job, 64)
	for i := range jobs {
		i := i
		jobs[i] = func(ctx context.Context, e *Encoder) error {
			ran.Add(1)
			if i == 0 {
				return errBoom
			}
			writeCU(e, true)
			return nil
		}
	}

	_, err := EncodeParallel(context.Background(), jobs, 4096, &Options{Workers: 1})
	if !errors.Is(err, errBoom) {
		t.Fatalf("EncodeParallel() error = %v, want %v", err, errBoom)
	}
	if n := ran.Load(); n != 1 {
		t.Errorf("%d jobs ran after the first failed, want none", n-1)
	}
}

func TestEncodeParallel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := EncodeParallel(ctx, []Job{rowJob(1)}, 4096, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("EncodeParallel() error = %v, want context.Canceled", err)
	}
}

func TestEncodeParallel_InvalidOptions(t *testing.T) {
	tests := []struct {
		name    string
		bufSize int
		opts    *Options
	}{
		{"exact without buffer", 0, nil},
		{"bad backend", 64, &Options{Backend: BackendKind(7)}},
		{"negative workers", 64, &Options{Workers: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeParallel(context.Background(), []Job{rowJob(1)}, tt.bufSize, tt.opts)
			if !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("EncodeParallel() error = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func BenchmarkEncodeParallel(b *testing.B) {
	jobs := make([]Job, 32)
	for i := range jobs {
		jobs[i] = rowJob(32)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeParallel(context.Background(), jobs, 1<<16, nil); err != nil {
			b.Fatal(err)
		}
	}
}
