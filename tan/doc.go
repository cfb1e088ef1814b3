// Package tan implements a real-time, multi-channel FIR convolution
// engine with hot-swappable impulse responses: create a Convolution,
// load a response per channel, and drive it block by block from an
// audio thread while a background worker transforms and cross-fades in
// replacement responses without an audible click.
//
// Four algorithm variants trade latency for CPU cost: TimeDomain (zero
// latency, short responses), OverlapAdd (zero latency, medium
// responses), UniformPartitioned and NonUniformPartitioned (bounded
// latency, long responses), and HeadTail (UniformPartitioned split
// across two scheduling passes).
//
//	ctx := tan.NewContext()
//	conv, err := tan.CreateConvolution(ctx, tan.WithAlgorithm(tan.NonUniformPartitioned))
//	if err != nil { ... }
//	if err := conv.Init(); err != nil { ... }
//	defer conv.Terminate()
//
//	ch, err := conv.GetNextFreeChannel()
//	if err := conv.UpdateResponseTD(ch, impulseResponse); err != nil { ... }
//
//	output := make([]float32, conv.BlockSize())
//	if err := conv.Process(ch, input, output); err != nil { ... }
package tan
