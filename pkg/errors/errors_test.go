package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorFormat(t *testing.T) {
	e := New(ErrCodeItemNotFound, "item not found")
	assert.Equal(t, "[ITM_001] item not found", e.Error())

	withDetail := e.WithDetail("item_id=abc")
	assert.Equal(t, "[ITM_001] item not found: item_id=abc", withDetail.Error())
	// Original is not mutated.
	assert.Empty(t, e.Detail)
}

func TestWrap_PreservesCodeThroughChain(t *testing.T) {
	root := New(ErrCodeItemAlreadyClaimed, "item already claimed")
	wrapped := Wrap(root, ErrCodeUnknown, "approve failed")

	assert.Equal(t, ErrCodeItemAlreadyClaimed, wrapped.Code)
	assert.True(t, IsCode(wrapped, ErrCodeItemAlreadyClaimed))
	assert.True(t, stderrors.Is(wrapped, wrapped))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "query failed"))
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(New(ErrCodeItemAlreadyClaimed, "x")))
	assert.True(t, IsConflict(New(ErrCodeClaimAlreadyFinalized, "x")))
	assert.False(t, IsConflict(New(ErrCodeItemNotFound, "x")))
	assert.False(t, IsConflict(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeOK, GetCode(nil))
	assert.Equal(t, ErrCodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeInvalidDistrict, GetCode(New(ErrCodeInvalidDistrict, "x")))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusConflict, HTTPStatusForCode(ErrCodeItemAlreadyClaimed))
	assert.Equal(t, http.StatusNotFound, HTTPStatusForCode(ErrCodeClaimNotFound))
	assert.Equal(t, http.StatusMultiStatus, HTTPStatusForCode(ErrCodePartialCascade))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("NOPE")))
}

func TestClientServerClassification(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeInvalidRegion))
	assert.True(t, IsServerError(ErrCodeDispatchFailed))
	assert.False(t, IsServerError(ErrCodeInvalidRegion))
}
