package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FieldValueKind определяет вариант значения атрибута услуги.
type FieldValueKind string

const (
	FieldValueNull       FieldValueKind = "null"
	FieldValueText       FieldValueKind = "text"
	FieldValueNumber     FieldValueKind = "number"
	FieldValueStructured FieldValueKind = "structured"
)

// FieldValue — закрытое объединение значений, которые может принимать
// атрибут услуги в журнале изменений. Каждому варианту соответствует
// ровно одна каноническая сериализация, поэтому diff двух записей
// журнала всегда сравним побайтово.
type FieldValue struct {
	Kind       FieldValueKind
	Text       string
	Number     float64
	Structured map[string]interface{}
}

// NullValue возвращает отсутствующее значение (поле ранее не было задано).
func NullValue() FieldValue {
	return FieldValue{Kind: FieldValueNull}
}

// TextValue возвращает строковое значение.
func TextValue(s string) FieldValue {
	return FieldValue{Kind: FieldValueText, Text: s}
}

// NumberValue возвращает числовое значение.
func NumberValue(v float64) FieldValue {
	return FieldValue{Kind: FieldValueNumber, Number: v}
}

// StructuredValue возвращает составное значение (например, список опций услуги).
func StructuredValue(m map[string]interface{}) FieldValue {
	return FieldValue{Kind: FieldValueStructured, Structured: m}
}

// Serialize возвращает каноническую текстовую форму значения.
// nil означает SQL NULL — null никогда не сериализуется в строку "null".
// Числа кодируются кратчайшей формой, которая точно восстанавливается
// через ParseFloat; составные значения кодируются в JSON со стабильным
// порядком ключей (encoding/json сортирует ключи map).
func (v FieldValue) Serialize() (*string, error) {
	switch v.Kind {
	case FieldValueNull:
		return nil, nil
	case FieldValueText:
		s := v.Text
		return &s, nil
	case FieldValueNumber:
		s := strconv.FormatFloat(v.Number, 'g', -1, 64)
		return &s, nil
	case FieldValueStructured:
		b, err := json.Marshal(v.Structured)
		if err != nil {
			return nil, fmt.Errorf("fieldvalue: не удалось сериализовать составное значение: %w", err)
		}
		s := string(b)
		return &s, nil
	default:
		return nil, fmt.Errorf("fieldvalue: неизвестный вариант значения %q", v.Kind)
	}
}

// ParseFieldValue восстанавливает значение из канонической формы.
// Операция обратна Serialize для всех вариантов объединения.
func ParseFieldValue(kind FieldValueKind, raw *string) (FieldValue, error) {
	if raw == nil {
		if kind != FieldValueNull {
			return FieldValue{}, fmt.Errorf("fieldvalue: NULL недопустим для варианта %q", kind)
		}
		return NullValue(), nil
	}

	switch kind {
	case FieldValueNull:
		return FieldValue{}, fmt.Errorf("fieldvalue: вариант null не может иметь сериализованную форму %q", *raw)
	case FieldValueText:
		return TextValue(*raw), nil
	case FieldValueNumber:
		n, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			return FieldValue{}, fmt.Errorf("fieldvalue: некорректное число %q: %w", *raw, err)
		}
		return NumberValue(n), nil
	case FieldValueStructured:
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(*raw), &m); err != nil {
			return FieldValue{}, fmt.Errorf("fieldvalue: некорректный JSON %q: %w", *raw, err)
		}
		return StructuredValue(m), nil
	default:
		return FieldValue{}, fmt.Errorf("fieldvalue: неизвестный вариант значения %q", kind)
	}
}
