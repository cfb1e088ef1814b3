package samplebuffer

import "testing"

func TestNewIsZeroed(t *testing.T) {
	b := New(2, 4)
	if b.NumChannels() != 2 || b.Len() != 4 {
		t.Fatalf("NumChannels/Len = %d/%d, want 2/4", b.NumChannels(), b.Len())
	}

	for c := 0; c < 2; c++ {
		for _, v := range b.Channel(c) {
			if v != 0 {
				t.Fatalf("channel %d not zeroed: %v", c, b.Channel(c))
			}
		}
	}
}

func TestWrapTakesOwnership(t *testing.T) {
	ch0 := []float32{1, 2, 3}
	ch1 := []float32{4, 5, 6}

	b, err := Wrap([][]float32{ch0, ch1})
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	if b.NumChannels() != 2 || b.Len() != 3 {
		t.Fatalf("NumChannels/Len = %d/%d, want 2/3", b.NumChannels(), b.Len())
	}

	b.Channel(0)[0] = 9
	if ch0[0] != 9 {
		t.Fatal("Wrap copied instead of taking ownership of the backing slice")
	}
}

func TestWrapRejectsMismatchedLengths(t *testing.T) {
	_, err := Wrap([][]float32{{1, 2}, {1}})
	if err != ErrChannelLengthMismatch {
		t.Fatalf("err = %v, want ErrChannelLengthMismatch", err)
	}
}

func TestZero(t *testing.T) {
	b := New(1, 3)
	copy(b.Channel(0), []float32{1, 2, 3})

	b.Zero()

	for _, v := range b.Channel(0) {
		if v != 0 {
			t.Fatalf("Zero left nonzero data: %v", b.Channel(0))
		}
	}
}

func TestResizeGrowShrink(t *testing.T) {
	b := New(1, 4)
	copy(b.Channel(0), []float32{1, 2, 3, 4})

	b.Resize(2)
	if b.Len() != 2 || len(b.Channel(0)) != 2 {
		t.Fatalf("after shrink, Len/channel len = %d/%d, want 2/2", b.Len(), len(b.Channel(0)))
	}
	if b.Channel(0)[0] != 1 || b.Channel(0)[1] != 2 {
		t.Fatalf("shrink lost leading data: %v", b.Channel(0))
	}

	b.Resize(5)
	if b.Len() != 5 || len(b.Channel(0)) != 5 {
		t.Fatalf("after grow, Len/channel len = %d/%d, want 5/5", b.Len(), len(b.Channel(0)))
	}
	for i := 2; i < 5; i++ {
		if b.Channel(0)[i] != 0 {
			t.Fatalf("grown tail not zeroed at %d: %v", i, b.Channel(0))
		}
	}
}
