package app

import (
	"storyreel/internal/llm"
	"storyreel/internal/storage"
	"storyreel/pkg/config"
)

type Service struct {
	cfg     *config.Config
	writer  llm.ScriptWriter
	images  llm.ImageGenerator
	storage storage.Store
}

type ServiceOptions struct {
	Config  *config.Config
	Writer  llm.ScriptWriter
	Images  llm.ImageGenerator
	Storage storage.Store
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:     opts.Config,
		writer:  opts.Writer,
		images:  opts.Images,
		storage: opts.Storage,
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) Close() error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Close()
}
