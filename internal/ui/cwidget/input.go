package cwidget

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/pkg/errors"
)

// Input is a labelled entry that parses its text into T. The label shows
// the last accepted value; rejected text leaves it unchanged and shows the
// validation error below the entry.
type Input[T any] struct {
	widget.BaseWidget

	labelWidget *widget.Label
	entryWidget *widget.Entry
	errorWidget *widget.Label

	LabelText   string
	Placeholder string

	DefaultValue T
	Value        T

	OnChanged func(T)

	Validator func(string) (T, error)
	Format    func(T) string
}

func newInput[T any](label, placeholder string, defaultValue T, format func(T) string, onChanged func(T)) *Input[T] {
	input := &Input[T]{
		LabelText:    label,
		Placeholder:  placeholder,
		OnChanged:    onChanged,
		DefaultValue: defaultValue,
		Value:        defaultValue,
		Format:       format,
	}

	input.labelWidget = widget.NewLabel(input.caption(defaultValue))
	input.labelWidget.TextStyle = fyne.TextStyle{Bold: true}

	input.entryWidget = widget.NewEntry()
	input.entryWidget.SetPlaceHolder(placeholder)

	input.errorWidget = widget.NewLabel("")
	input.errorWidget.Hidden = true
	input.errorWidget.TextStyle = fyne.TextStyle{Italic: true}
	input.errorWidget.Importance = widget.DangerImportance

	input.entryWidget.OnChanged = func(s string) {
		res, err := input.Validator(s)
		input.SetError(err)

		if err == nil {
			input.Value = res
			if input.OnChanged != nil {
				input.OnChanged(res)
			}
			input.labelWidget.SetText(input.caption(res))
		}
	}

	input.ExtendBaseWidget(input)

	return input
}

func (item *Input[T]) caption(v T) string {
	return fmt.Sprintf("%s: %s", item.LabelText, item.Format(v))
}

// NewIntInput accepts non-zero integers; empty text restores the default.
func NewIntInput(label, placeholder string, defaultValue int, onChanged func(int)) *Input[int] {
	input := newInput(label, placeholder, defaultValue, strconv.Itoa, onChanged)

	input.Validator = func(s string) (int, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return input.DefaultValue, nil
		}

		res, err := strconv.Atoi(s)
		if err != nil {
			return input.DefaultValue, errors.Errorf("%q is not an integer", s)
		}
		if res == 0 {
			return input.DefaultValue, errors.New("value must not be zero")
		}
		return res, nil
	}

	return input
}

// NewFloatInput accepts numbers in [lo, hi]; empty text restores the
// default.
func NewFloatInput(label, placeholder string, defaultValue, lo, hi float64, onChanged func(float64)) *Input[float64] {
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	input := newInput(label, placeholder, defaultValue, format, onChanged)

	input.Validator = func(s string) (float64, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return input.DefaultValue, nil
		}

		res, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return input.DefaultValue, errors.Errorf("%q is not a number", s)
		}
		if res < lo || res > hi {
			return input.DefaultValue, errors.Errorf("value must be between %s and %s", format(lo), format(hi))
		}
		return res, nil
	}

	return input
}

func (item *Input[T]) CreateRenderer() fyne.WidgetRenderer {
	c := container.NewVBox(
		item.labelWidget,
		item.entryWidget,
		item.errorWidget,
	)

	return widget.NewSimpleRenderer(c)
}

func (item *Input[T]) SetError(err error) {
	item.errorWidget.Hidden = err == nil
	if err != nil {
		item.errorWidget.SetText(err.Error())
	}
}

func (item *Input[T]) SetText(text string) {
	item.entryWidget.SetText(text)
}

// Caption is the label currently shown above the entry.
func (item *Input[T]) Caption() string {
	return item.labelWidget.Text
}

// ErrorText is the visible validation error, or "" when hidden.
func (item *Input[T]) ErrorText() string {
	if item.errorWidget.Hidden {
		return ""
	}
	return item.errorWidget.Text
}
