package log

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"pkg.world.dev/arena/types"
)

// Loggable is anything that can describe the tables it owns and the tasks it has scheduled.
type Loggable interface {
	RegisteredTables() []string
	ScheduledTasks() []string
}

func loadTablesToEvent(zeroLoggerEvent *zerolog.Event, target Loggable) *zerolog.Event {
	tables := target.RegisteredTables()
	sort.Strings(tables)
	zeroLoggerEvent.Int("total_tables", len(tables))
	arrayLogger := zerolog.Arr()
	for _, name := range tables {
		arrayLogger = arrayLogger.Str(name)
	}
	return zeroLoggerEvent.Array("tables", arrayLogger)
}

func loadTasksToEvent(zeroLoggerEvent *zerolog.Event, target Loggable) *zerolog.Event {
	tasks := target.ScheduledTasks()
	zeroLoggerEvent.Int("total_tasks", len(tasks))
	arrayLogger := zerolog.Arr()
	for _, name := range tasks {
		arrayLogger = arrayLogger.Str(name)
	}
	return zeroLoggerEvent.Array("tasks", arrayLogger)
}

// Tables logs the tables owned by target.
func Tables(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	loadTablesToEvent(logger.WithLevel(level), target).Send()
}

// Tasks logs the scheduled tasks of target.
func Tasks(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	loadTasksToEvent(logger.WithLevel(level), target).Send()
}

// World logs everything about the world (tables and tasks).
func World(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	zeroLoggerEvent := logger.WithLevel(level)
	zeroLoggerEvent = loadTablesToEvent(zeroLoggerEvent, target)
	zeroLoggerEvent = loadTasksToEvent(zeroLoggerEvent, target)
	zeroLoggerEvent.Send()
}

// Entity logs an entity together with the names of the tables holding one of its rows.
func Entity(logger *zerolog.Logger, level zerolog.Level, entityID types.EntityID, tables ...string) {
	arrayLogger := zerolog.Arr()
	for _, name := range tables {
		arrayLogger = arrayLogger.Str(name)
	}
	logger.WithLevel(level).
		Uint64("entity_id", uint64(entityID)).
		Array("tables", arrayLogger).
		Send()
}

// Tick logs the outcome of one simulation tick.
func Tick(logger *zerolog.Logger, level zerolog.Level, tick uint64, duration time.Duration, bullets int) {
	logger.WithLevel(level).
		Uint64("tick", tick).
		Dur("duration", duration).
		Int("bullets", bullets).
		Msg("tick completed")
}

// CreateSystemLogger creates a sub logger with the entry {"system" : systemName}.
func CreateSystemLogger(logger *zerolog.Logger, systemName string) *zerolog.Logger {
	newLogger := logger.With().Str("system", systemName).Logger()
	return &newLogger
}
