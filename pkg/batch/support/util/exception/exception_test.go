package exception_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/sheetload/pkg/batch/support/util/exception"
)

var errUniqueViolation = errors.New("UNIQUE constraint failed: nhom_nhan_vien.ten_nhom")

func TestNewBatchError(t *testing.T) {
	be := exception.NewBatchError("writer", "insert failed", errUniqueViolation, true, false)

	assert.Equal(t, "writer", be.Module)
	assert.True(t, be.IsSkippable())
	assert.False(t, be.IsRetryable())
	assert.NotEmpty(t, be.StackTrace)
	assert.Equal(t, "[writer] insert failed: UNIQUE constraint failed: nhom_nhan_vien.ten_nhom", be.Error())
	assert.ErrorIs(t, be, errUniqueViolation)
}

func TestNewBatchErrorf_TrailingArguments(t *testing.T) {
	be := exception.NewBatchErrorf("store", "read %s", "cham_cong", true, false, context.DeadlineExceeded)

	assert.Equal(t, "read cham_cong", be.Message)
	assert.True(t, be.IsSkippable())
	assert.False(t, be.IsRetryable())
	assert.ErrorIs(t, be, context.DeadlineExceeded)

	plain := exception.NewBatchErrorf("config", "chunk size %d is invalid", -1)
	assert.Equal(t, "chunk size -1 is invalid", plain.Message)
	assert.Nil(t, plain.OriginalErr)
}

func TestIsBatchError_Wrapped(t *testing.T) {
	be := exception.NewBatchError("importer", "snapshot failed", nil, false, false)
	wrapped := fmt.Errorf("run aborted: %w", be)

	assert.True(t, exception.IsBatchError(wrapped))
	assert.False(t, exception.IsBatchError(errUniqueViolation))
	assert.False(t, exception.IsBatchError(nil))
}

func TestIsErrorOfType(t *testing.T) {
	wrapped := exception.NewBatchError("writer", "chunk aborted", context.Canceled, false, false)

	assert.True(t, exception.IsErrorOfType(wrapped, "context.Canceled"))
	assert.False(t, exception.IsErrorOfType(wrapped, "UNIQUE"))
	assert.True(t, exception.IsErrorOfType(errUniqueViolation, "UNIQUE constraint"))
	assert.True(t, exception.IsErrorOfType(wrapped, "exception.BatchError"))
	assert.False(t, exception.IsErrorOfType(nil, "context.Canceled"))
}

func TestRegisterErrorType(t *testing.T) {
	sentinel := errors.New("quota exceeded")
	exception.RegisterErrorType("QuotaExceeded", sentinel)

	assert.True(t, exception.IsErrorTypeRegistered("QuotaExceeded"))
	assert.True(t, exception.IsErrorOfType(fmt.Errorf("upload: %w", sentinel), "QuotaExceeded"))
	assert.Panics(t, func() { exception.RegisterErrorType("", sentinel) })
	assert.Panics(t, func() { exception.RegisterErrorType("nil", nil) })
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
	assert.Equal(t, errUniqueViolation.Error(), exception.ExtractErrorMessage(errUniqueViolation))

	be := exception.NewBatchError("writer", "insert failed", errUniqueViolation, false, false)
	assert.Equal(t, errUniqueViolation.Error(), exception.ExtractErrorMessage(be))

	nested := exception.NewBatchError("store", "outer", be, false, false)
	assert.Equal(t, errUniqueViolation.Error(), exception.ExtractErrorMessage(nested))

	bare := exception.NewBatchError("importer", "current user id is required", nil, false, false)
	assert.Equal(t, "current user id is required", exception.ExtractErrorMessage(bare))
}
