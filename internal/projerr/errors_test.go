package projerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := Domain("sd must be non-negative").ForQuantity("tas").AtYear(2050)
	wrapped := fmt.Errorf("build drivers: %w", err)

	assert.True(t, errors.Is(wrapped, ErrDomain))
	assert.False(t, errors.Is(wrapped, ErrConfiguration))
	assert.Equal(t, KindDomain, KindOf(wrapped))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "bare",
			err:  Configuration("no Levermann fit for scenario ssp999"),
			want: "configuration error: no Levermann fit for scenario ssp999",
		},
		{
			name: "attributed",
			err:  Domain("negative value").ForQuantity("glacier").ForParam("cv").AtYear(2100),
			want: "domain error (glacier, param cv, year 2100): negative value",
		},
		{
			name: "with cause",
			err:  &Error{Kind: KindDomain, Message: "read", Cause: errors.New("eof")},
			want: "domain error: read: eof",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAttributionDoesNotMutate(t *testing.T) {
	base := Domain("x")
	_ = base.ForQuantity("antdyn")
	assert.Empty(t, base.Quantity)
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, "unknown error", KindUnknown.String())
}
