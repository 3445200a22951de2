package molecule

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fluoriclogppka-studio/pkg/chem"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// DefaultAllowedExtensions lists structure-file extensions accepted by default.
var DefaultAllowedExtensions = []string{"sdf"}

// Normalizer converts any Input into a canonical Identifier.
type Normalizer struct {
	logger     logging.Logger
	extensions []string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithAllowedExtensions replaces the accepted structure-file extensions.
func WithAllowedExtensions(exts ...string) Option {
	return func(n *Normalizer) {
		n.extensions = nil
		for _, e := range exts {
			n.extensions = append(n.extensions, strings.TrimPrefix(strings.ToLower(e), "."))
		}
	}
}

// NewNormalizer builds a Normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		logger:     logging.NewNopLogger(),
		extensions: append([]string(nil), DefaultAllowedExtensions...),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AllowedExtensions returns the accepted structure-file extensions.
func (n *Normalizer) AllowedExtensions() []string {
	return append([]string(nil), n.extensions...)
}

// Normalize dispatches on the input variant.  ok=false with a nil error means
// nothing usable was supplied; a non-nil error is a recoverable problem the
// caller should show inline.
func (n *Normalizer) Normalize(ctx context.Context, in Input) (Identifier, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	switch v := in.(type) {
	case nil:
		return "", false, nil
	case TextInput:
		id, ok := n.FromText(v.Raw)
		return id, ok, nil
	case StructureFileInput:
		return n.FromStructureFile(v.Name, v.Data)
	case EditorInput:
		id, ok := n.FromEditorPayload(v.Payload)
		return id, ok, nil
	default:
		return "", false, apperrors.InvalidParam(fmt.Sprintf("unsupported input %T", in))
	}
}

// FromText validates typed notation and returns its canonical form.
func (n *Normalizer) FromText(raw string) (Identifier, bool) {
	id, ok := Validate(raw)
	if !ok {
		n.logger.Debug("text input rejected", logging.Int("length", len(raw)))
	}
	return id, ok
}

// FromStructureFile decodes an SDF upload and canonicalizes its first
// parsable record.
func (n *Normalizer) FromStructureFile(name string, data []byte) (Identifier, bool, error) {
	if name != "" && !n.extensionAllowed(name) {
		return "", false, apperrors.New(apperrors.ErrCodeInvalidFileType, "unsupported structure file type").
			WithDetail(fmt.Sprintf("%q; allowed: %s", filepath.Base(name), strings.Join(n.extensions, ", ")))
	}
	if !utf8.Valid(data) {
		return "", false, apperrors.Wrap(utf8Error(data), apperrors.ErrCodeSDFReadFailed, "Error reading SDF file")
	}

	records, err := chem.ReadSDF(bytes.NewReader(data))
	if err != nil {
		return "", false, err
	}
	first := chem.FirstValid(records)
	if first == nil {
		cause := fmt.Errorf("no parsable molecule records")
		if len(records) > 0 && records[0].Err != nil {
			cause = fmt.Errorf("no parsable molecule records (%d read): %w", len(records), records[0].Err)
		}
		n.logger.Info("structure file rejected", logging.Int("records", len(records)), logging.Err(cause))
		return "", false, apperrors.Wrap(cause, apperrors.ErrCodeSDFParseFailed, "Error processing SDF file")
	}

	id, ok := Validate(chem.CanonicalSMILES(first.Mol))
	if !ok {
		return "", false, apperrors.New(apperrors.ErrCodeSDFParseFailed, "Error processing SDF file").
			WithDetail(fmt.Sprintf("record %d does not round-trip", first.Index+1))
	}
	n.logger.Debug("structure file accepted",
		logging.Int("records", len(records)),
		logging.Int("record", first.Index+1),
		logging.String("smiles", id.String()))
	return id, true, nil
}

// FromEditorPayload resolves an editor payload in a fixed order: attribute,
// plain string, "smiles" key, "molfile" key.  The winner must validate.
func (n *Normalizer) FromEditorPayload(p EditorPayload) (Identifier, bool) {
	if p == nil {
		return "", false
	}
	candidate := resolveEditorCandidate(p)
	if candidate == "" {
		return "", false
	}
	return Validate(candidate)
}

func (n *Normalizer) extensionAllowed(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, e := range n.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// utf8Error describes the first undecodable byte in data.
func utf8Error(data []byte) error {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return fmt.Errorf("'utf-8' codec can't decode byte 0x%02x in position %d: invalid start byte", data[i], i)
		}
		i += size
	}
	return fmt.Errorf("invalid utf-8")
}
