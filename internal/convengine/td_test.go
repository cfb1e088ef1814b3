package convengine

import (
	"testing"

	"github.com/cwbudde/tanconv/internal/irstore"
	"github.com/cwbudde/tanconv/internal/testutil"
)

func TestTDIdentityKernelPassesInputUnchanged(t *testing.T) {
	const block = 8

	td, err := NewTD(block, block)
	if err != nil {
		t.Fatalf("NewTD: %v", err)
	}

	kernel := testutil.Impulse32(1, 0)
	ir := irstore.IR{Samples: kernel, FirstNZ: 0, LastNZ: 0}
	td.LoadResponse(ir, false)

	in := testutil.DeterministicNoise32(1, 0.5, block)
	out := make([]float32, block)

	if err := td.Process(ProcessArgs{Input: in, Output: out, SkipStage: SkipStageAll, AdvanceTime: true}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("out[%d] = %v, want %v (identity kernel)", i, out[i], in[i])
		}
	}
}

func TestTDDelayedImpulseShiftsOutputAcrossBlocks(t *testing.T) {
	const block = 4
	const delay = 3

	td, err := NewTD(block, block)
	if err != nil {
		t.Fatalf("NewTD: %v", err)
	}

	kernel := testutil.Impulse32(delay+1, delay)
	ir := irstore.IR{Samples: kernel, FirstNZ: delay, LastNZ: delay}
	td.LoadResponse(ir, false)

	in1 := []float32{1, 2, 3, 4}
	out1 := make([]float32, block)
	if err := td.Process(ProcessArgs{Input: in1, Output: out1, SkipStage: SkipStageAll, AdvanceTime: true}); err != nil {
		t.Fatalf("Process block1: %v", err)
	}
	want1 := []float32{0, 0, 0, 1}
	for i := range want1 {
		if out1[i] != want1[i] {
			t.Fatalf("block1 out = %v, want %v", out1, want1)
		}
	}

	in2 := []float32{5, 6, 7, 8}
	out2 := make([]float32, block)
	if err := td.Process(ProcessArgs{Input: in2, Output: out2, SkipStage: SkipStageAll, AdvanceTime: true}); err != nil {
		t.Fatalf("Process block2: %v", err)
	}
	want2 := []float32{2, 3, 4, 5}
	for i := range want2 {
		if out2[i] != want2[i] {
			t.Fatalf("block2 out = %v, want %v", out2, want2)
		}
	}
}

func TestTDMuteResponseProducesSilence(t *testing.T) {
	const block = 4

	td, err := NewTD(block, block)
	if err != nil {
		t.Fatalf("NewTD: %v", err)
	}

	td.LoadResponse(irstore.IR{FirstNZ: 0, LastNZ: -1}, false)

	in := testutil.DeterministicNoise32(2, 1, block)
	out := make([]float32, block)
	if err := td.Process(ProcessArgs{Input: in, Output: out, SkipStage: SkipStageAll, AdvanceTime: true}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0 for a muted response", i, v)
		}
	}
}

func TestTDResetClearsHistory(t *testing.T) {
	const block = 4
	const delay = 1

	td, err := NewTD(block, block)
	if err != nil {
		t.Fatalf("NewTD: %v", err)
	}

	kernel := testutil.Impulse32(delay+1, delay)
	td.LoadResponse(irstore.IR{Samples: kernel, FirstNZ: delay, LastNZ: delay}, false)

	in := []float32{1, 2, 3, 4}
	scratch := make([]float32, block)
	if err := td.Process(ProcessArgs{Input: in, Output: scratch, SkipStage: SkipStageAll, AdvanceTime: true}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	td.Reset()

	silence := make([]float32, block)
	out := make([]float32, block)
	if err := td.Process(ProcessArgs{Input: silence, Output: out, SkipStage: SkipStageAll, AdvanceTime: true}); err != nil {
		t.Fatalf("Process after Reset: %v", err)
	}

	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v after Reset+silence, want 0 (history must be cleared)", i, v)
		}
	}
}

func TestBlendCrossfadeLinearRampLaw(t *testing.T) {
	cur := []float32{10, 10, 10, 10}
	prev := []float32{0, 0, 0, 0}

	blendCrossfade(cur, prev, 4)

	for i, v := range cur {
		w := float32(i) / 4
		want := prev[i]*(1-w) + 10*w
		if v != want {
			t.Fatalf("cur[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestBlendCrossfadeZeroRampIsNoop(t *testing.T) {
	cur := []float32{1, 2, 3}
	want := append([]float32(nil), cur...)

	blendCrossfade(cur, []float32{9, 9, 9}, 0)

	for i := range want {
		if cur[i] != want[i] {
			t.Fatalf("cur = %v, want unchanged %v", cur, want)
		}
	}
}

func TestTDCrossfadeBlendsPreviousAndCurrentResponses(t *testing.T) {
	const block = 4

	td, err := NewTD(block, block)
	if err != nil {
		t.Fatalf("NewTD: %v", err)
	}

	prevKernel := testutil.Impulse32(1, 0)
	td.LoadResponse(irstore.IR{Samples: prevKernel, FirstNZ: 0, LastNZ: 0}, false)

	curKernel := []float32{2}
	td.LoadResponse(irstore.IR{Samples: curKernel, FirstNZ: 0, LastNZ: 0}, true)

	in := []float32{1, 1, 1, 1}
	out := make([]float32, block)

	err = td.Process(ProcessArgs{
		Input: in, Output: out, SkipStage: SkipStageAll, AdvanceTime: true,
		Crossfade: &CrossfadeState{Active: true, RampLen: block},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	for i, v := range out {
		w := float32(i) / float32(block)
		want := float32(1)*(1-w) + float32(2)*w
		if v != want {
			t.Fatalf("out[%d] = %v, want %v", i, v, want)
		}
	}
}
