package format

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Notification is a transient toast shown by the page.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Icon    string `json:"icon"`
	Alert   string `json:"alert"`
}

func NewNotification(level Level, message string) Notification {
	return Notification{
		Level:   level,
		Message: message,
		Icon:    Icon(level),
		Alert:   AlertClass(level),
	}
}

func Success(message string) Notification { return NewNotification(LevelSuccess, message) }
func Error(message string) Notification   { return NewNotification(LevelError, message) }
func Info(message string) Notification    { return NewNotification(LevelInfo, message) }
func Warning(message string) Notification { return NewNotification(LevelWarning, message) }

// Icon returns the Font Awesome icon name for a level.
func Icon(level Level) string {
	switch level {
	case LevelSuccess:
		return "check-circle"
	case LevelError:
		return "exclamation-triangle"
	case LevelWarning:
		return "exclamation-circle"
	default:
		return "info-circle"
	}
}

// AlertClass maps a level onto the Bootstrap alert variant.
func AlertClass(level Level) string {
	switch level {
	case LevelError:
		return "danger"
	case LevelSuccess, LevelWarning:
		return string(level)
	default:
		return "info"
	}
}
