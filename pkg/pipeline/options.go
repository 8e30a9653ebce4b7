package pipeline

import "github.com/askiada/go-geodiff/pkg/channel"

type stepConfig struct {
	concurrent  int
	bufferSize  int
	writePolicy channel.WritePolicy
}

type StepOption func(s *stepConfig)

// StepConcurrency sets the number of workers of a transform.
func StepConcurrency(concurrent int) StepOption {
	return func(s *stepConfig) {
		s.concurrent = concurrent
	}
}

// StepBufferSize sets the buffer size of the output channel of a step, 0 for a rendezvous channel.
func StepBufferSize(bufferSize int) StepOption {
	return func(s *stepConfig) {
		s.bufferSize = bufferSize
	}
}

// StepWritePolicy sets what a write does on the output channel once every reader has left.
func StepWritePolicy(policy channel.WritePolicy) StepOption {
	return func(s *stepConfig) {
		s.writePolicy = policy
	}
}

func newStepConfig(opts []StepOption) stepConfig {
	cfg := stepConfig{concurrent: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.concurrent < 1 {
		cfg.concurrent = 1
	}

	return cfg
}
