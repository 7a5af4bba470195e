package session

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

type Flash struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}
