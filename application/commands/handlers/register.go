package handlers

import (
	"priorify/application/commands"
	"priorify/application/commands/bus"
)

// Set holds every command handler of the service
type Set struct {
	SetPriorities *SetPrioritiesHandler
	RunDigest     *RunDigestHandler
}

// Register binds each handler to its command type
func (s *Set) Register(b *bus.CommandBus) error {
	if err := b.Register(commands.SetPrioritiesCommand{}, bus.Typed(s.SetPriorities.Handle)); err != nil {
		return err
	}
	return b.Register(commands.RunDigestCommand{}, bus.Typed(s.RunDigest.Handle))
}
