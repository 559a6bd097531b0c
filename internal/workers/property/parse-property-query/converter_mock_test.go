package parsepropertyquery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockConverter struct {
	mock.Mock
}

func (m *MockConverter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	args := m.Called(ctx, amount, from, to)
	return args.Get(0).(float64), args.Error(1)
}

func TestHandler_Execute_ConvertsBothBoundsToBase(t *testing.T) {
	conv := new(MockConverter)
	conv.On("Convert", mock.Anything, 100000.0, "GBP", "EUR").Return(117000.0, nil).Once()
	conv.On("Convert", mock.Anything, 200000.0, "GBP", "EUR").Return(234000.0, nil).Once()

	h := createTestHandler(t, conv)
	output, err := h.Execute(context.Background(), query("flat between £100k and £200k"))
	require.NoError(t, err)

	require.NotNil(t, output.Filters.MinPrice)
	require.NotNil(t, output.Filters.MaxPrice)
	assert.Equal(t, 117000.0, *output.Filters.MinPrice)
	assert.Equal(t, 234000.0, *output.Filters.MaxPrice)
	assert.Equal(t, "EUR", output.Filters.Currency)
	conv.AssertExpectations(t)
}

func TestHandler_Execute_BaseCurrencySkipsConverter(t *testing.T) {
	conv := new(MockConverter)
	h := createTestHandler(t, conv)

	output, err := h.Execute(context.Background(), query("house under 300000 euros"))
	require.NoError(t, err)
	assert.Equal(t, "EUR", output.Filters.Currency)
	conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
