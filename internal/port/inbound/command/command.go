package command

// Command is a marker interface for all commands.
type Command interface {
	// CommandName returns the name of the command for logging/tracing.
	CommandName() string
}
