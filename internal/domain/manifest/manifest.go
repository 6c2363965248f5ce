package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/store"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// ErrUnsupportedFormat is returned for manifest files with an unknown extension
var ErrUnsupportedFormat = errors.New("unsupported manifest format")

// Format is a manifest encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Manifest declares the applications installed on the desktop
type Manifest struct {
	Apps []types.Metadata `json:"apps" yaml:"apps" toml:"apps"`
}

// FormatOf infers the format from a file extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads and parses a manifest file
func Load(path string) (*Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes a manifest. Unknown fields are rejected so typos in
// descriptors surface at startup.
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	var err error

	switch format {
	case FormatYAML:
		err = yaml.UnmarshalWithOptions(data, &m, yaml.Strict())
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&m)
	case FormatJSON:
		err = sonic.ConfigStd.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s manifest: %w", format, err)
	}

	seen := make(map[string]struct{}, len(m.Apps))
	for _, app := range m.Apps {
		if _, dup := seen[app.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", store.ErrInvalidMetadata, app.ID)
		}
		seen[app.ID] = struct{}{}
	}
	return &m, nil
}

// IDs returns the declared IDs in manifest order
func (m *Manifest) IDs() []string {
	ids := make([]string, 0, len(m.Apps))
	for _, app := range m.Apps {
		ids = append(ids, app.ID)
	}
	return ids
}

// Inject hands every descriptor to the store and then prunes records whose
// application is no longer declared. An invalid descriptor is skipped and
// logged; the returned error joins every rejection.
func (m *Manifest) Inject(st *store.Store, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		declared []string
		errs     []error
	)
	for _, app := range m.Apps {
		if err := st.SetMetadata(app); err != nil {
			logger.Warn("Rejected application descriptor", zap.String("app_id", app.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", app.ID, err))
			continue
		}
		declared = append(declared, app.ID)
	}

	st.Prune(declared)

	logger.Info("Applications declared",
		zap.Int("declared", len(declared)),
		zap.Int("rejected", len(errs)))
	return declared, errors.Join(errs...)
}
