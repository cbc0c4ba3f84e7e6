package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/JaimeStill/custodian/pkg/telemetry"
)

type telemetryEnv struct {
	Enabled     *bool    `env:"CUSTODIAN_TELEMETRY_ENABLED"`
	Endpoint    *string  `env:"CUSTODIAN_TELEMETRY_ENDPOINT"`
	ServiceName *string  `env:"CUSTODIAN_TELEMETRY_SERVICE_NAME"`
	SampleRatio *float64 `env:"CUSTODIAN_TELEMETRY_SAMPLE_RATIO"`
}

func finalizeTelemetry(c *telemetry.Config) error {
	var e telemetryEnv
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	assign(&c.Enabled, e.Enabled)
	assign(&c.Endpoint, e.Endpoint)
	assign(&c.ServiceName, e.ServiceName)
	assign(&c.SampleRatio, e.SampleRatio)

	return c.Finalize()
}
