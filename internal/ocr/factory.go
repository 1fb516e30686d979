package ocr

import (
	"log/slog"
	"strings"
)

// Factory picks a provider: the preferred one when available, else the first available
// entry in the chain, else the demo provider.
type Factory struct {
	preferred string
	chain     []Provider
	demo      *DemoProvider
	logger    *slog.Logger
}

func NewFactory(preferred string, logger *slog.Logger, chain ...Provider) *Factory {
	return &Factory{
		preferred: strings.ToLower(strings.TrimSpace(preferred)),
		chain:     chain,
		demo:      NewDemoProvider(logger),
		logger:    logger.With("component", "ocr_factory"),
	}
}

func (f *Factory) Provider() Provider {
	if f.preferred != "" {
		if p := f.ProviderByName(f.preferred); p != nil && p.IsAvailable() {
			f.logger.Info("Using preferred OCR provider", "provider", p.Name())
			return p
		}
		f.logger.Warn("Preferred OCR provider is not available, falling back", "preferred", f.preferred)
	}

	for _, p := range f.chain {
		if p.IsAvailable() {
			f.logger.Info("Using OCR provider", "provider", p.Name())
			return p
		}
	}

	f.logger.Info("No production OCR provider available, using demo provider")
	return f.demo
}

// ProviderByName returns nil for unknown names
func (f *Factory) ProviderByName(name string) Provider {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == DemoProviderName {
		return f.demo
	}
	for _, p := range f.chain {
		if strings.EqualFold(p.Name(), name) {
			return p
		}
	}
	return nil
}

// Providers lists the chain followed by the demo provider
func (f *Factory) Providers() []Provider {
	all := make([]Provider, 0, len(f.chain)+1)
	all = append(all, f.chain...)
	return append(all, f.demo)
}

func (f *Factory) Demo() *DemoProvider {
	return f.demo
}
