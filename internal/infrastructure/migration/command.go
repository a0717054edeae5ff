package migration

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// Command is a parsed migrate CLI invocation
type Command struct {
	Name string // up, down, steps, version, force, list
	N    int    // step count or forced version
}

// ErrUsage is returned for an unknown command or a missing argument
var ErrUsage = errors.New("invalid usage")

// ParseCommand parses the positional arguments of cmd/migrate
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, fmt.Errorf("%w: command required", ErrUsage)
	}

	cmd := Command{Name: args[0]}
	switch cmd.Name {
	case "up", "down", "version", "list":
		return cmd, nil
	case "steps", "force":
		if len(args) < 2 {
			return Command{}, fmt.Errorf("%w: %s needs a number", ErrUsage, cmd.Name)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return Command{}, fmt.Errorf("%w: %s: %q is not a number", ErrUsage, cmd.Name, args[1])
		}
		if cmd.Name == "steps" && n == 0 {
			return Command{}, fmt.Errorf("%w: steps must not be 0", ErrUsage)
		}
		if cmd.Name == "force" && n < -1 {
			return Command{}, fmt.Errorf("%w: force version must be -1 or greater", ErrUsage)
		}
		cmd.N = n
		return cmd, nil
	default:
		return Command{}, fmt.Errorf("%w: unknown command %q", ErrUsage, cmd.Name)
	}
}

// NeedsDatabase reports whether the command talks to the database
func (c Command) NeedsDatabase() bool {
	return c.Name != "list"
}

// Run executes the command on m. list is handled by the caller.
func (c Command) Run(m *Migrator) error {
	switch c.Name {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		return m.Steps(c.N)
	case "force":
		return m.Force(c.N)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			m.logger.Info("No migrations applied")
			return nil
		}
		m.logger.Info("Current migration version",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
		)
		return nil
	default:
		return fmt.Errorf("%w: %s cannot run against the database", ErrUsage, c.Name)
	}
}
