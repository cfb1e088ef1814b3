package tan

import (
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/tanconv/internal/testutil"
)

func newTestConvolution(t *testing.T, opts ...Option) *Convolution {
	t.Helper()

	ctx := NewContext()
	allOpts := append([]Option{
		WithAlgorithm(TimeDomain),
		WithBlockSize(8),
		WithMaxChannels(2),
		WithMaxKernelLen(8),
	}, opts...)

	conv, err := CreateConvolution(ctx, allOpts...)
	if err != nil {
		t.Fatalf("CreateConvolution: %v", err)
	}
	if err := conv.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	t.Cleanup(func() { _ = conv.Terminate() })

	return conv
}

func TestProcessBeforeInitReturnsWrongState(t *testing.T) {
	ctx := NewContext()
	conv, err := CreateConvolution(ctx, WithAlgorithm(TimeDomain), WithBlockSize(8), WithMaxChannels(1), WithMaxKernelLen(8))
	if err != nil {
		t.Fatalf("CreateConvolution: %v", err)
	}

	buf := make([]float32, 8)
	if err := conv.Process(0, buf, buf); !errors.Is(err, ErrWrongState) {
		t.Fatalf("Process before Init = %v, want ErrWrongState", err)
	}
}

func TestInitTwiceReturnsAlreadyInitialized(t *testing.T) {
	conv := newTestConvolution(t)
	if err := conv.Init(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second Init = %v, want ErrAlreadyInitialized", err)
	}
}

func TestTerminateIsIdempotent(t *testing.T) {
	conv := newTestConvolution(t)
	if err := conv.Terminate(); err != nil {
		t.Fatalf("first Terminate: %v", err)
	}
	if err := conv.Terminate(); err != nil {
		t.Fatalf("second Terminate: %v", err)
	}
}

func TestGetNextFreeChannelExhaustion(t *testing.T) {
	conv := newTestConvolution(t, WithMaxChannels(2))

	if _, err := conv.GetNextFreeChannel(); err != nil {
		t.Fatalf("first GetNextFreeChannel: %v", err)
	}
	if _, err := conv.GetNextFreeChannel(); err != nil {
		t.Fatalf("second GetNextFreeChannel: %v", err)
	}
	if _, err := conv.GetNextFreeChannel(); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("third GetNextFreeChannel = %v, want ErrOutOfMemory", err)
	}
}

func TestProcessInvalidChannelID(t *testing.T) {
	conv := newTestConvolution(t)

	buf := make([]float32, 8)
	if err := conv.Process(99, buf, buf); !errors.Is(err, ErrInvalidArg) {
		t.Fatalf("Process(invalid channel) = %v, want ErrInvalidArg", err)
	}
}

func TestProcessMismatchedLengthsIsComputeFailure(t *testing.T) {
	conv := newTestConvolution(t)

	ch, err := conv.GetNextFreeChannel()
	if err != nil {
		t.Fatalf("GetNextFreeChannel: %v", err)
	}

	in := make([]float32, 8)
	out := make([]float32, 4)
	if err := conv.Process(ch, in, out); !errors.Is(err, ErrComputeFailure) {
		t.Fatalf("Process(mismatched lengths) = %v, want ErrComputeFailure", err)
	}
}

func TestUpdateResponseTDEventuallyCrossfadesIn(t *testing.T) {
	conv := newTestConvolution(t)

	ch, err := conv.GetNextFreeChannel()
	if err != nil {
		t.Fatalf("GetNextFreeChannel: %v", err)
	}

	if err := conv.UpdateResponseTD(ch, []float32{1}); err != nil {
		t.Fatalf("UpdateResponseTD: %v", err)
	}

	in := []float32{1, 2, 3, 4, 5, 6, 7, 8}

	deadline := time.Now().Add(2 * time.Second)
	matched := false
	for time.Now().Before(deadline) {
		out := make([]float32, len(in))
		if err := conv.Process(ch, in, out); err != nil {
			t.Fatalf("Process: %v", err)
		}

		if slicesEqual32(out, in) {
			matched = true
			break
		}

		time.Sleep(time.Millisecond)
	}

	if !matched {
		t.Fatal("channel output never converged to the identity response after UpdateResponseTD")
	}
}

func TestFlushMutesChannel(t *testing.T) {
	conv := newTestConvolution(t)

	ch, err := conv.GetNextFreeChannel()
	if err != nil {
		t.Fatalf("GetNextFreeChannel: %v", err)
	}

	if err := conv.UpdateResponseTD(ch, []float32{1}); err != nil {
		t.Fatalf("UpdateResponseTD: %v", err)
	}

	in := []float32{1, 2, 3, 4, 5, 6, 7, 8}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		out := make([]float32, len(in))
		if err := conv.Process(ch, in, out); err != nil {
			t.Fatalf("Process: %v", err)
		}
		if slicesEqual32(out, in) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if err := conv.Flush(ch); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	out := make([]float32, len(in))
	if err := conv.Process(ch, in, out); err != nil {
		t.Fatalf("Process after Flush: %v", err)
	}

	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v after Flush, want 0", i, v)
		}
	}
}

func TestProcessFinalizeFlushesSilence(t *testing.T) {
	conv := newTestConvolution(t)

	ch, err := conv.GetNextFreeChannel()
	if err != nil {
		t.Fatalf("GetNextFreeChannel: %v", err)
	}

	out := make([]float32, conv.BlockSize())
	if err := conv.ProcessFinalize(ch, out); err != nil {
		t.Fatalf("ProcessFinalize: %v", err)
	}

	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0 from ProcessFinalize on an unloaded channel", i, v)
		}
	}
}

func TestCopyResponsesPropagatesCommittedResponse(t *testing.T) {
	conv := newTestConvolution(t, WithMaxChannels(2))

	src, err := conv.GetNextFreeChannel()
	if err != nil {
		t.Fatalf("GetNextFreeChannel(src): %v", err)
	}
	dst, err := conv.GetNextFreeChannel()
	if err != nil {
		t.Fatalf("GetNextFreeChannel(dst): %v", err)
	}

	if err := conv.UpdateResponseTD(src, []float32{1}); err != nil {
		t.Fatalf("UpdateResponseTD: %v", err)
	}

	in := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		out := make([]float32, len(in))
		if err := conv.Process(src, in, out); err != nil {
			t.Fatalf("Process(src): %v", err)
		}
		if slicesEqual32(out, in) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if err := conv.CopyResponses(src, dst); err != nil {
		t.Fatalf("CopyResponses: %v", err)
	}

	deadline = time.Now().Add(2 * time.Second)
	matched := false
	for time.Now().Before(deadline) {
		out := make([]float32, len(in))
		if err := conv.Process(dst, in, out); err != nil {
			t.Fatalf("Process(dst): %v", err)
		}
		if slicesEqual32(out, in) {
			matched = true
			break
		}
		time.Sleep(time.Millisecond)
	}

	if !matched {
		t.Fatal("destination channel never converged to the copied response")
	}
}

func TestCopyResponsesFromEmptySourceFails(t *testing.T) {
	conv := newTestConvolution(t, WithMaxChannels(2))

	src, _ := conv.GetNextFreeChannel()
	dst, _ := conv.GetNextFreeChannel()

	if err := conv.CopyResponses(src, dst); !errors.Is(err, ErrInvalidArg) {
		t.Fatalf("CopyResponses(unloaded source) = %v, want ErrInvalidArg", err)
	}
}

func TestReverbSendBlendsDryAndWet(t *testing.T) {
	conv := newTestConvolution(t)

	ch, err := conv.GetNextFreeChannel()
	if err != nil {
		t.Fatalf("GetNextFreeChannel: %v", err)
	}
	if err := conv.UpdateResponseTD(ch, []float32{1}); err != nil {
		t.Fatalf("UpdateResponseTD: %v", err)
	}

	send := NewReverbSend(conv, ch)
	send.SetWetDry(0, 1) // dry-only: the send must leave input untouched
	// regardless of whatever the wrapped channel's convolved output is.

	block := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	want := append([]float32(nil), block...)

	if err := send.ProcessInPlace(block); err != nil {
		t.Fatalf("ProcessInPlace: %v", err)
	}

	testutil.RequireSliceNearlyEqual32(t, block, want, 1e-6)
}

func TestReverbSendWetOnlyMatchesUnderlyingChannel(t *testing.T) {
	conv := newTestConvolution(t)

	ch, err := conv.GetNextFreeChannel()
	if err != nil {
		t.Fatalf("GetNextFreeChannel: %v", err)
	}
	if err := conv.UpdateResponseTD(ch, []float32{1}); err != nil {
		t.Fatalf("UpdateResponseTD: %v", err)
	}

	send := NewReverbSend(conv, ch)
	send.SetWetDry(1, 0) // wet-only: must converge to the identity response

	block := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	want := append([]float32(nil), block...)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got := append([]float32(nil), block...)
		if err := send.ProcessInPlace(got); err != nil {
			t.Fatalf("ProcessInPlace: %v", err)
		}
		if slicesEqual32(got, want) {
			return
		}
		time.Sleep(time.Millisecond)
	}

	t.Fatal("wet-only ReverbSend never converged to the identity response")
}

func slicesEqual32(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
