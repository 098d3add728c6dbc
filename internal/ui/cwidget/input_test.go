package cwidget

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatInput(t *testing.T) {
	test.NewTempApp(t)

	var got []float64
	input := NewFloatInput("Confidence", "0.0 - 1.0", 0.5, 0, 1, func(v float64) {
		got = append(got, v)
	})
	assert.Equal(t, "Confidence: 0.50", input.Caption())

	input.SetText("0.75")
	require.Equal(t, []float64{0.75}, got)
	assert.Equal(t, "Confidence: 0.75", input.Caption())
	assert.Empty(t, input.ErrorText())

	input.SetText("1.5")
	assert.Len(t, got, 1)
	assert.Equal(t, 0.75, input.Value)
	assert.Equal(t, "value must be between 0.00 and 1.00", input.ErrorText())

	input.SetText("abc")
	assert.Len(t, got, 1)
	assert.Contains(t, input.ErrorText(), "not a number")

	input.SetText("")
	assert.Equal(t, []float64{0.75, 0.5}, got)
	assert.Empty(t, input.ErrorText())
}

func TestIntInputValidator(t *testing.T) {
	test.NewTempApp(t)

	input := NewIntInput("Width", "Enter integer", 640, nil)

	v, err := input.Validator("320")
	require.NoError(t, err)
	assert.Equal(t, 320, v)

	_, err = input.Validator("0")
	assert.Error(t, err)

	_, err = input.Validator("wide")
	assert.Error(t, err)

	v, err = input.Validator(" ")
	require.NoError(t, err)
	assert.Equal(t, 640, v)

	input.SetText("480")
	assert.Equal(t, "Width: 480", input.Caption())
}
