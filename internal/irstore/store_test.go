package irstore

import "testing"

func TestBeginUpdateComputesNonzeroRange(t *testing.T) {
	s := New()
	slot := Slot{ChannelID: 0}

	ir := s.BeginUpdate(slot, []float32{0, 0, 3, 4, 0})
	if ir.FirstNZ != 2 || ir.LastNZ != 3 {
		t.Fatalf("FirstNZ/LastNZ = %d/%d, want 2/3", ir.FirstNZ, ir.LastNZ)
	}
}

func TestBeginUpdateZeroLengthIsMute(t *testing.T) {
	s := New()
	slot := Slot{ChannelID: 0}

	ir := s.BeginUpdate(slot, nil)
	if !ir.emptyMute() {
		t.Fatal("expected zero-length samples to stage as a mute")
	}

	if ir.FirstNZ != 0 || ir.LastNZ != -1 {
		t.Fatalf("FirstNZ/LastNZ = %d/%d, want 0/-1 for an all-zero response", ir.FirstNZ, ir.LastNZ)
	}
}

func TestCurrentUnknownSlot(t *testing.T) {
	s := New()
	if _, ok := s.Current(Slot{ChannelID: 5}); ok {
		t.Fatal("expected ok=false for a slot never staged")
	}
}

func TestCommitUpdateUnknownSlot(t *testing.T) {
	s := New()
	if err := s.CommitUpdate(Slot{ChannelID: 1}); err != ErrUnknownSlot {
		t.Fatalf("err = %v, want ErrUnknownSlot", err)
	}
}

func TestCommitUpdateRotatesCurrentToPrev(t *testing.T) {
	s := New()
	slot := Slot{ChannelID: 0}

	first := s.BeginUpdate(slot, []float32{1, 0, 0})
	first.Spectra = [][][]complex128{{{1}}}

	if err := s.CommitUpdate(slot); err != nil {
		t.Fatalf("first CommitUpdate: %v", err)
	}

	cur, ok := s.Current(slot)
	if !ok || len(cur.Samples) != 3 || cur.Samples[0] != 1 {
		t.Fatalf("Current after first commit = %+v, ok=%v", cur, ok)
	}

	second := s.BeginUpdate(slot, []float32{0, 1, 0})
	second.Spectra = [][][]complex128{{{2}}}

	if err := s.CommitUpdate(slot); err != nil {
		t.Fatalf("second CommitUpdate: %v", err)
	}

	cur, _ = s.Current(slot)
	if cur.Samples[1] != 1 {
		t.Fatalf("Current after second commit = %+v, want the second upload live", cur)
	}

	prev, ok := s.Prev(slot)
	if !ok || prev.Samples[0] != 1 {
		t.Fatalf("Prev after second commit = %+v, ok=%v, want the first upload", prev, ok)
	}
}

func TestCommitUpdateNeverReusesInFlightBuffer(t *testing.T) {
	s := New()
	slot := Slot{ChannelID: 0}

	for i := 0; i < 5; i++ {
		ir := s.BeginUpdate(slot, []float32{float32(i)})
		if err := s.CommitUpdate(slot); err != nil {
			t.Fatalf("CommitUpdate #%d: %v", i, err)
		}

		cur, _ := s.Current(slot)
		if cur.Samples[0] != float32(i) {
			t.Fatalf("round %d: Current = %v, want %v", i, cur.Samples[0], i)
		}

		if i > 0 {
			prev, _ := s.Prev(slot)
			if prev.Samples[0] != float32(i-1) {
				t.Fatalf("round %d: Prev = %v, want %v", i, prev.Samples[0], i-1)
			}
		}

		_ = ir
	}
}

func TestFlushZeroesAllThreeBuffers(t *testing.T) {
	s := New()
	slot := Slot{ChannelID: 0}

	s.BeginUpdate(slot, []float32{1, 2, 3})
	if err := s.CommitUpdate(slot); err != nil {
		t.Fatalf("CommitUpdate: %v", err)
	}

	s.Flush(slot)

	cur, ok := s.Current(slot)
	if !ok || !cur.emptyMute() {
		t.Fatalf("Current after Flush = %+v, ok=%v, want an empty mute", cur, ok)
	}

	prev, ok := s.Prev(slot)
	if !ok || !prev.emptyMute() {
		t.Fatalf("Prev after Flush = %+v, ok=%v, want an empty mute", prev, ok)
	}
}

func TestFlushUnknownSlotIsNoop(t *testing.T) {
	s := New()
	s.Flush(Slot{ChannelID: 9}) // must not panic
}

func TestFirstLastNonzeroAllZero(t *testing.T) {
	first, last := firstLastNonzero(make([]float32, 8))
	if first != 0 || last != -1 {
		t.Fatalf("first/last = %d/%d, want 0/-1", first, last)
	}
}
