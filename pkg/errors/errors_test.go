package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownReasons(t *testing.T) {
	cases := []struct {
		reason Reason
		status int
	}{
		{ReasonAuthenticationRequired, http.StatusForbidden},
		{ReasonMissingQualifications, http.StatusForbidden},
		{ReasonAlreadyBorrowed, http.StatusBadRequest},
		{ReasonUnknownTransferRequest, http.StatusNotFound},
		{ReasonUnknownTransferAction, http.StatusBadRequest},
		{ReasonInternal, http.StatusInternalServerError},
		{ReasonDependencyUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(string(tc.reason), func(t *testing.T) {
			assert.Equal(t, tc.status, MetadataFor(tc.reason).HTTPStatus)
		})
	}
}

func TestMetadataForUnknownReasonDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, MetadataFor(Reason("made_up")).HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ReasonDependencyUnavailable, cause, "redis unavailable")

	assert.Equal(t, ReasonDependencyUnavailable, err.Reason())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "dependency_unavailable: redis unavailable", err.Error())
}

func TestAsThroughWrapping(t *testing.T) {
	inner := New(ReasonNoSuchUser, "no such user")
	outer := fmt.Errorf("checkout: %w", inner)

	typed := As(outer)
	require.NotNil(t, typed)
	assert.Equal(t, ReasonNoSuchUser, typed.Reason())
}

func TestAsNonTyped(t *testing.T) {
	assert.Nil(t, As(fmt.Errorf("plain")))
	assert.Nil(t, As(nil))
}

func TestWithDetail(t *testing.T) {
	err := New(ReasonAlreadyBorrowed, "insufficient stock").
		WithDetail("items", []int{1, 2}).
		WithDetail("hint", "retry later")

	details := err.Details()
	require.Len(t, details, 2)
	assert.Equal(t, []int{1, 2}, details["items"])
}
