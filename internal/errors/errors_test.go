package errors

import (
	stdErrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCodeThroughFmtWrapping(t *testing.T) {
	cause := stdErrors.New("dial tcp: refused")
	err := fmt.Errorf("connect: %w", Wrap(CodeConnectionFailure, cause, "查询链 ID 失败",
		WithMetadata("endpoint", "http://localhost:8545")))

	assert.True(t, IsCode(err, CodeConnectionFailure))
	assert.False(t, IsCode(err, CodeTransportFailure))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeConnectionFailure, CodeOf(err))

	coded, ok := From(err)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8545", coded.Metadata()["endpoint"])
}

func TestRetryableDefaultsAndOverride(t *testing.T) {
	assert.True(t, RetryableError(New(CodeTransportFailure, "")))
	assert.False(t, RetryableError(New(CodeArtifactNotFound, "")))
	assert.False(t, RetryableError(New(CodeTransportFailure, "", WithRetryable(false))))
	assert.False(t, RetryableError(stdErrors.New("plain")))
}

func TestNewUsesDefaultMessage(t *testing.T) {
	err := New(CodeInsufficientFunds, "")
	assert.Equal(t, "[INSUFFICIENT_FUNDS] 余额不足", err.Error())
	assert.Equal(t, "余额不足", err.Message())
	assert.Nil(t, err.Metadata())
}

func TestLevelOf(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LevelOf(nil))
	assert.Equal(t, slog.LevelInfo, LevelOf(New(CodeInvalidArgument, "金额必须为正数")))
	assert.Equal(t, slog.LevelWarn, LevelOf(fmt.Errorf("send: %w", New(CodeTransportFailure, ""))))
	assert.Equal(t, slog.LevelError, LevelOf(stdErrors.New("plain")))
	assert.Equal(t, slog.LevelError, Code("NEVER_DEFINED").Level())
}
