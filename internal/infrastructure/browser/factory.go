package browser

import "github.com/riskibarqy/fbref-report/internal/platform/logging"

// Factory builds unopened sessions sharing one set of options.
type Factory struct {
	opts   Options
	logger *logging.Logger
}

func NewFactory(opts Options, logger *logging.Logger) *Factory {
	if logger == nil {
		logger = logging.Default()
	}
	return &Factory{opts: NormalizeOptions(opts), logger: logger}
}

func (f *Factory) New() *PlaywrightSession {
	return NewPlaywrightSession(f.opts, f.logger)
}

func (f *Factory) Options() Options {
	return f.opts
}
