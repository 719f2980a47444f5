package controller

type ControllerConfig struct {
	Port     int `yaml:"Port"`
	LogLevel int `yaml:"LogLevel"`

	// filled in by main for the info endpoint
	CompileDate    string
	Version        string
	LogLevelString string
	TickInterval   int
	MqttConnection string
	MqttTopic      string
	EncryptionFlag int
}
