package tan

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/cwbudde/tanconv/internal/convengine"
	"github.com/cwbudde/tanconv/internal/coordinator"
	"github.com/cwbudde/tanconv/internal/irstore"
)

// Convolution is the public multi-channel convolution engine (spec.md
// §6): a fixed-size set of channels, each independently loadable with an
// impulse response and independently processed, backed by whichever
// Algorithm variant Config selects.
type Convolution struct {
	cfg Config
	ctx *Context

	mu          sync.Mutex
	initialized bool
	terminated  bool

	store    *irstore.Store
	channels []*channelSlot

	worker       *coordinator.Worker
	workerCancel context.CancelFunc

	uploadSeq uint64
}

type channelSlot struct {
	inUse bool
	alg   convengine.Algorithm
	coord *coordinator.Channel
}

// CreateConvolution allocates (but does not yet initialize) a
// Convolution. Init must be called before Process/UpdateResponseTD are
// valid.
func CreateConvolution(ctx *Context, opts ...Option) (*Convolution, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrInvalidArg)
	}

	cfg := ApplyOptions(opts...)

	if cfg.BlockSize <= 0 || cfg.MaxChannels <= 0 {
		return nil, fmt.Errorf("%w: block size and channel count must be positive", ErrInvalidArg)
	}

	return &Convolution{cfg: cfg, ctx: ctx}, nil
}

// Init constructs every channel slot's algorithm instance and starts the
// background update worker. Returns ErrAlreadyInitialized if called
// twice.
func (c *Convolution) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return ErrAlreadyInitialized
	}

	c.store = irstore.New()
	c.channels = make([]*channelSlot, c.cfg.MaxChannels)

	for i := range c.channels {
		alg, err := c.newAlgorithm()
		if err != nil {
			return fmt.Errorf("%w: channel %d: %v", ErrComputeFailure, i, err)
		}

		c.channels[i] = &channelSlot{alg: alg, coord: coordinator.NewChannel()}
	}

	c.worker = coordinator.NewWorker(c.cfg.QueueDepth, log.Default())

	workerCtx, cancel := context.WithCancel(context.Background())
	c.workerCancel = cancel

	go c.worker.Run(workerCtx)

	c.initialized = true

	return nil
}

func (c *Convolution) newAlgorithm() (convengine.Algorithm, error) {
	switch c.cfg.Algorithm {
	case TimeDomain:
		return convengine.NewTD(c.cfg.BlockSize, c.cfg.MaxKernelLen)
	case OverlapAdd:
		return convengine.NewOLA(c.ctx.transform, c.cfg.BlockSize, c.cfg.MaxKernelLen)
	case UniformPartitioned:
		return convengine.NewUP(c.ctx.transform, c.cfg.MaxKernelLen, c.cfg.MinBlockOrder)
	case NonUniformPartitioned:
		return convengine.NewNU(c.ctx.transform, c.cfg.MaxKernelLen, c.cfg.MinBlockOrder, c.cfg.MaxBlockOrder)
	case HeadTail:
		up, err := convengine.NewUP(c.ctx.transform, c.cfg.MaxKernelLen, c.cfg.MinBlockOrder)
		if err != nil {
			return nil, err
		}

		return convengine.NewHT(up), nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm kind %d", ErrInvalidArg, c.cfg.Algorithm)
	}
}

// Terminate stops the update worker and unblocks any channel coordinator
// waiting on its latches. Safe to call once; a second call is a no-op.
func (c *Convolution) Terminate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated {
		return nil
	}

	if c.worker != nil {
		c.worker.Stop()
	}

	if c.workerCancel != nil {
		c.workerCancel()
	}

	for _, ch := range c.channels {
		ch.coord.Close()
	}

	c.terminated = true

	return nil
}

// GetNextFreeChannel returns the lowest-indexed channel slot not
// currently in use, reserving it.
func (c *Convolution) GetNextFreeChannel() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return 0, ErrWrongState
	}

	for i, ch := range c.channels {
		if !ch.inUse {
			ch.inUse = true
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: no free channel", ErrOutOfMemory)
}

// BlockSize returns the host-driven block size this engine was
// configured with.
func (c *Convolution) BlockSize() int { return c.cfg.BlockSize }

func (c *Convolution) channel(id int) (*channelSlot, error) {
	if id < 0 || id >= len(c.channels) {
		return nil, fmt.Errorf("%w: channel %d out of range", ErrInvalidArg, id)
	}

	return c.channels[id], nil
}

// Process runs one host block of convolution on channelID. If a queued
// IR update has finished transforming, this call begins (and completes)
// the one-block cross-fade transparently. Internally the host block is
// split into the algorithm's own native sub-block size when the two
// differ (e.g. a uniform/non-uniform partitioned channel whose partition
// latency is smaller than the host's BlockSize).
func (c *Convolution) Process(channelID int, input, output []float32) error {
	if !c.initialized || c.terminated {
		return ErrWrongState
	}

	ch, err := c.channel(channelID)
	if err != nil {
		return err
	}

	crossfadeArmed := ch.coord.TryBeginCrossfade()

	err = c.forEachSubBlock(ch, input, output, true, func(args convengine.ProcessArgs, first bool) error {
		if crossfadeArmed && first {
			args.Crossfade = &convengine.CrossfadeState{Active: true, RampLen: len(args.Output)}
		}

		return ch.alg.Process(args)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrComputeFailure, err)
	}

	if crossfadeArmed {
		ch.coord.FinishCrossfade()
	}

	return nil
}

// ProcessDirect runs one block of convolution without advancing the
// channel's streaming ring-buffer position, for side-channel probes
// (e.g. latency measurement) that must not disturb Process's state.
func (c *Convolution) ProcessDirect(channelID int, input, output []float32) error {
	if !c.initialized || c.terminated {
		return ErrWrongState
	}

	ch, err := c.channel(channelID)
	if err != nil {
		return err
	}

	err = c.forEachSubBlock(ch, input, output, false, func(args convengine.ProcessArgs, first bool) error {
		return ch.alg.Process(args)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrComputeFailure, err)
	}

	return nil
}

// forEachSubBlock splits a host-sized input/output pair into the
// algorithm's own native block size (its Latency(), when nonzero and
// smaller than the host block), invoking fn once per sub-block. TD and
// OLA report Latency()==0 and always run as a single call sized to the
// host block, since they were constructed against BlockSize directly.
func (c *Convolution) forEachSubBlock(
	ch *channelSlot, input, output []float32, advanceTime bool,
	fn func(args convengine.ProcessArgs, first bool) error,
) error {
	if len(input) != len(output) {
		return fmt.Errorf("%w: input/output length mismatch", ErrInvalidArg)
	}

	native := ch.alg.Latency()
	if native <= 0 || native >= len(input) {
		return fn(convengine.ProcessArgs{
			Input: input, Output: output, AdvanceTime: advanceTime, SkipStage: convengine.SkipStageAll,
		}, true)
	}

	for pos := 0; pos < len(input); pos += native {
		end := pos + native
		if end > len(input) {
			return fmt.Errorf("%w: host block size must be a multiple of the algorithm's native block size", ErrInvalidArg)
		}

		args := convengine.ProcessArgs{
			Input:       input[pos:end],
			Output:      output[pos:end],
			AdvanceTime: advanceTime,
			SkipStage:   convengine.SkipStageAll,
		}

		if err := fn(args, pos == 0); err != nil {
			return err
		}
	}

	return nil
}

// ProcessFinalize drains any buffered tail for channelID by processing
// one final block of silence, without consuming new input. Useful at
// end-of-stream to flush an overlap-style algorithm's remaining latency.
func (c *Convolution) ProcessFinalize(channelID int, output []float32) error {
	if !c.initialized || c.terminated {
		return ErrWrongState
	}

	ch, err := c.channel(channelID)
	if err != nil {
		return err
	}

	silence := make([]float32, len(output))

	err = c.forEachSubBlock(ch, silence, output, true, func(args convengine.ProcessArgs, first bool) error {
		return ch.alg.Process(args)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrComputeFailure, err)
	}

	return nil
}

// Flush mutes channelID immediately: zeroes its IR store slot and resets
// its algorithm state, bypassing the cross-fade protocol.
func (c *Convolution) Flush(channelID int) error {
	if !c.initialized {
		return ErrWrongState
	}

	ch, err := c.channel(channelID)
	if err != nil {
		return err
	}

	c.store.Flush(irstore.Slot{ChannelID: channelID})
	ch.alg.LoadResponse(irstore.IR{}, false)
	ch.alg.Reset()

	return nil
}

// CopyResponses copies the current response installed on srcChannel onto
// dstChannel, going through the same update/commit path UpdateResponseTD
// uses so the copy is cross-faded in rather than applied with a click.
func (c *Convolution) CopyResponses(srcChannel, dstChannel int) error {
	if !c.initialized {
		return ErrWrongState
	}

	if _, err := c.channel(srcChannel); err != nil {
		return err
	}

	if _, err := c.channel(dstChannel); err != nil {
		return err
	}

	srcIR, ok := c.store.Current(irstore.Slot{ChannelID: srcChannel})
	if !ok {
		return fmt.Errorf("%w: source channel %d has no response", ErrInvalidArg, srcChannel)
	}

	return c.updateChannel(dstChannel, srcIR.Samples, srcIR.Spectra)
}
