package samplebuffer

import "testing"

func TestPoolGetIsZeroedAndSized(t *testing.T) {
	p := NewPool()

	b := p.Get(2, 16)
	if b.NumChannels() != 2 || b.Len() != 16 {
		t.Fatalf("NumChannels/Len = %d/%d, want 2/16", b.NumChannels(), b.Len())
	}

	for c := 0; c < 2; c++ {
		for _, v := range b.Channel(c) {
			if v != 0 {
				t.Fatalf("channel %d not zeroed on Get", c)
			}
		}
	}
}

func TestPoolReusesAfterPut(t *testing.T) {
	p := NewPool()

	b := p.Get(1, 8)
	b.Channel(0)[0] = 42
	p.Put(b)

	b2 := p.Get(1, 8)
	if b2.Channel(0)[0] != 0 {
		t.Fatal("Get after Put returned dirty data, want zeroed")
	}
}

func TestPoolGetResizesOnChannelCountChange(t *testing.T) {
	p := NewPool()

	b := p.Get(1, 8)
	p.Put(b)

	b2 := p.Get(3, 4)
	if b2.NumChannels() != 3 || b2.Len() != 4 {
		t.Fatalf("NumChannels/Len = %d/%d, want 3/4", b2.NumChannels(), b2.Len())
	}
}

func TestPoolPutNilIsNoop(t *testing.T) {
	p := NewPool()
	p.Put(nil) // must not panic
}
