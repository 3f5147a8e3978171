package service

import (
	"context"
	"errors"
)

// CommandKind is an operator request applied by the control loop between steps.
type CommandKind int

const (
	CommandAckOverflow CommandKind = iota
	CommandClearBuffer
	CommandResetAlerts
)

func (k CommandKind) String() string {
	switch k {
	case CommandAckOverflow:
		return "ack_overflow"
	case CommandClearBuffer:
		return "clear_buffer"
	case CommandResetAlerts:
		return "reset_alerts"
	default:
		return "unknown"
	}
}

var (
	ErrPipelineStopped = errors.New("pipeline is not running")
	errUnknownCommand  = errors.New("unknown command")
)

type command struct {
	kind CommandKind
	done chan error
}

// Controller lets other goroutines ask the control loop to change its state.
type Controller interface {
	AckOverflow(ctx context.Context) error
	ClearBuffer(ctx context.Context) error
	ResetAlerts(ctx context.Context) error
}

func (p *Pipeline) AckOverflow(ctx context.Context) error {
	return p.submit(ctx, CommandAckOverflow)
}

func (p *Pipeline) ClearBuffer(ctx context.Context) error {
	return p.submit(ctx, CommandClearBuffer)
}

func (p *Pipeline) ResetAlerts(ctx context.Context) error {
	return p.submit(ctx, CommandResetAlerts)
}

// submit queues a command and waits until the loop has applied it.
func (p *Pipeline) submit(ctx context.Context, kind CommandKind) error {
	cmd := command{kind: kind, done: make(chan error, 1)}

	select {
	case p.commands <- cmd:
	case <-p.stopped:
		return ErrPipelineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.done:
		return err
	case <-p.stopped:
		return ErrPipelineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// apply runs on the loop goroutine.
func (p *Pipeline) apply(ctx context.Context, kind CommandKind) error {
	switch kind {
	case CommandAckOverflow:
		p.ring.AckOverflow()
		p.persist(ctx)
	case CommandClearBuffer:
		dropped := p.ring.Len()
		p.ring.Clear()
		p.persist(ctx)
		p.metrics.SetBufferDepth(0)
		p.appendEvent(ctx, eventBufferCleared(dropped))
	case CommandResetAlerts:
		p.alerts.Reset()
	default:
		return errUnknownCommand
	}
	p.log.Infow("command_applied", "command", kind.String())
	p.saveStatus(ctx)
	return nil
}
