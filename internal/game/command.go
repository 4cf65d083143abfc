package game

import (
	"go.uber.org/zap"

	"tank-arena/internal/entity"
)

// CommandKind selects what a Command does.
type CommandKind uint8

const (
	CommandInput CommandKind = iota
	CommandPause
	CommandResume
	CommandRestart
	CommandDebug
)

func (k CommandKind) String() string {
	switch k {
	case CommandPause:
		return "pause"
	case CommandResume:
		return "resume"
	case CommandRestart:
		return "restart"
	case CommandDebug:
		return "debug"
	default:
		return "input"
	}
}

// Command is an external request applied at the start of the next tick.
type Command struct {
	Kind  CommandKind
	Input Input               // CommandInput
	Class entity.VehicleClass // CommandRestart
	Debug Debug               // CommandDebug
}

// InputCommand replaces the held input. LookDelta is consumed by one tick;
// the buttons stay held until the next input command.
func InputCommand(in Input) Command { return Command{Kind: CommandInput, Input: in} }

// PauseCommand, ResumeCommand, RestartCommand and DebugCommand build the
// matching control commands.
func PauseCommand() Command                            { return Command{Kind: CommandPause} }
func ResumeCommand() Command                           { return Command{Kind: CommandResume} }
func RestartCommand(class entity.VehicleClass) Command { return Command{Kind: CommandRestart, Class: class} }
func DebugCommand(d Debug) Command                     { return Command{Kind: CommandDebug, Debug: d} }

// apply runs one command. Called with the session lock held.
func (s *Session) apply(cmd Command) {
	switch cmd.Kind {
	case CommandInput:
		look := s.heldInput.LookDelta + cmd.Input.LookDelta
		s.heldInput = cmd.Input
		s.heldInput.LookDelta = look
	case CommandPause:
		s.pause()
	case CommandResume:
		if err := s.resume(); err != nil {
			s.logger.Debug("resume refused", zap.String("session", s.id), zap.Error(err))
		}
	case CommandRestart:
		_ = s.restart(cmd.Class)
	case CommandDebug:
		s.setDebug(cmd.Debug)
	}
}
