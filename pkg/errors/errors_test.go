package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"invalid smiles", errors.ErrCodeMoleculeInvalidSMILES, "SMILES must not be empty"},
		{"sdf", errors.ErrCodeSDFParseFailed, "no parsable record"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.NotEmpty(t, ae.Stack)
		})
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	t.Parallel()

	ae := errors.Newf(errors.ErrCodeTargetUnsupported, "unsupported target %q", "pKb")
	assert.Equal(t, `unsupported target "pKb"`, ae.Message)
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
	assert.Nil(t, errors.Wrapf(nil, errors.CodeInternal, "x %d", 1))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("connection refused")
	wrapped := errors.Wrap(root, errors.ErrCodeAIInferenceFailed, "Error performing prediction")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeAIInferenceFailed, wrapped.Code)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
	assert.True(t, stderrors.Is(wrapped, root))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeSessionNotFound, "not found")
	outer := errors.Wrap(inner, errors.CodeUnknown, "adding context")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeSessionNotFound, outer.Code)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeSessionNotFound, "not found")
	outer := errors.Wrap(inner, errors.CodeInternal, "unexpected state")

	assert.Equal(t, errors.CodeInternal, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Formatting
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeMoleculeInvalidSMILES, "invalid SMILES")
	assert.Equal(t, "[MOL_001] invalid SMILES", ae.Error())

	detailed := ae.WithDetail("input=C1CC")
	assert.Equal(t, "[MOL_001] invalid SMILES: input=C1CC", detailed.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the original")
}

func TestUserMessage_AppendsCause(t *testing.T) {
	t.Parallel()

	ae := errors.Wrap(fmt.Errorf("model exploded"), errors.ErrCodeAIInferenceFailed, "Error performing prediction")
	assert.Equal(t, "Error performing prediction: model exploded", ae.UserMessage())

	bare := errors.New(errors.ErrCodeMoleculeNoInput, "Please enter a valid molecule")
	assert.Equal(t, "Please enter a valid molecule", bare.UserMessage())

	var nilErr *errors.AppError
	assert.Empty(t, nilErr.UserMessage())
}

func TestWithCause_Copies(t *testing.T) {
	t.Parallel()

	base := errors.New(errors.ErrCodeSDFReadFailed, "Error reading SDF file")
	cause := stderrors.New("invalid utf-8")
	withCause := base.WithCause(cause)

	assert.Nil(t, base.Cause)
	assert.Equal(t, cause, withCause.Cause)

	var nilErr *errors.AppError
	assert.Nil(t, nilErr.WithCause(cause))
	assert.Nil(t, nilErr.WithDetail("x"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_WalksChain(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeAITimeout, "deadline")
	outer := fmt.Errorf("gateway: %w", inner)

	assert.True(t, errors.IsCode(outer, errors.ErrCodeAITimeout))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeInternal))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeInternal))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("missing")))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeSessionNotFound, "missing")))
	assert.False(t, errors.IsNotFound(errors.Internal("boom")))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.CodeConflict, errors.GetCode(errors.InvalidState("no prediction")))
	assert.Equal(t, errors.ErrCodeServiceUnavailable, errors.GetCode(errors.Unavailable("down")))
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(errors.InvalidParam("bad")))
}

func TestAsIs_Reexports(t *testing.T) {
	t.Parallel()

	var target *errors.AppError
	err := fmt.Errorf("wrapped: %w", errors.Internal("boom"))
	require.True(t, errors.As(err, &target))
	assert.Equal(t, errors.CodeInternal, target.Code)
	assert.True(t, errors.Is(err, target))
}
