package config

// ServerConfig contains server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// FeedConfig contains the live occurrence feed configuration
type FeedConfig struct {
	TripUpdatesURL string `yaml:"tripUpdatesURL" validate:"omitempty,url"`
	ReadIntervalMS int    `yaml:"readIntervalMS" validate:"gte=0"`
	TimeoutMS      int    `yaml:"timeoutMS" validate:"gte=0"`
}

// PrognosisParams contains the minimum durations, in minutes, that the
// translator assigns to holds and operational transitions.
type PrognosisParams struct {
	MinDwellStop      int `yaml:"minDwellStop" validate:"gte=0"`
	MinDwellReplace   int `yaml:"minDwellReplace" validate:"gte=0"`
	MinDwellCouple    int `yaml:"minDwellCouple" validate:"gte=0"`
	MinDwellSplit     int `yaml:"minDwellSplit" validate:"gte=0"`
	EngineChange      int `yaml:"engineChange" validate:"gte=0"`
	EngineTurnaround  int `yaml:"engineTurnaround" validate:"gte=0"`
	DirectionChange   int `yaml:"directionChange" validate:"gte=0"`
	WaitForArrival    int `yaml:"waitForArrival" validate:"gte=0"`
	WaitForDeparture  int `yaml:"waitForDeparture" validate:"gte=0"`
	FallbackTravelMin int `yaml:"fallbackTravelMin" validate:"gte=0"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server    ServerConfig    `yaml:"server" validate:"required"`
	Feed      FeedConfig      `yaml:"feed"`
	Prognosis PrognosisParams `yaml:"prognosis"`
}

// DefaultPrognosisParams returns the dispatching defaults used when the
// config file does not override them.
func DefaultPrognosisParams() PrognosisParams {
	return PrognosisParams{
		MinDwellStop:      0,
		MinDwellReplace:   1,
		MinDwellCouple:    1,
		MinDwellSplit:     1,
		EngineChange:      5,
		EngineTurnaround:  2,
		DirectionChange:   3,
		WaitForArrival:    0,
		WaitForDeparture:  2,
		FallbackTravelMin: 1,
	}
}
