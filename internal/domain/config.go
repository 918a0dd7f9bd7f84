package domain

// Config is the runtime configuration shared across services.
type Config struct {
	ListenAddr  string   `yaml:"listenAddr"`
	JWTSecret   string   `yaml:"jwtSecret"`
	AdminEmails []string `yaml:"adminEmails"` // bootstrap administrator allow-list
	StateFile   string   `yaml:"stateFile"`   // client-local persisted state
}
