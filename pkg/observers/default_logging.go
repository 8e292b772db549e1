package observers

import "github.com/charmbracelet/log"

// NewDefaultLoggingObserver creates a logging observer whose verbosity follows
// the logger's own level
func NewDefaultLoggingObserver(logger *log.Logger) *LoggingObserver {
	return NewLoggingObserver(LevelFor(logger.GetLevel()), logger.WithPrefix("mavmon"))
}
