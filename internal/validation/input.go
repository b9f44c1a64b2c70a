package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinServiceTitleLength       = 3
	MaxServiceTitleLength       = 200
	MinServiceDescriptionLength = 10
	MaxServiceDescriptionLength = 5000
	MaxDisputeReasonLength      = 2000
	MaxAdminNoteLength          = 2000
	MinDeliveryDays             = 1
	MaxDeliveryDays             = 365
	MinPrice                    = 0.01
	MaxPrice                    = 1000000.0 // 1 миллион
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateDisputeReason проверяет причину спора: непустая, ограниченной длины.
func ValidateDisputeReason(reason string) error {
	if err := ValidateNonEmpty("причина спора", reason); err != nil {
		return err
	}
	return ValidateLength("причина спора", strings.TrimSpace(reason), 0, MaxDisputeReasonLength)
}

// ValidateAdminNote проверяет комментарий администратора к решению.
func ValidateAdminNote(note string) error {
	return ValidateLength("комментарий администратора", note, 0, MaxAdminNoteLength)
}

// ValidateServiceTitle проверяет название услуги.
func ValidateServiceTitle(title string) error {
	if err := ValidateNonEmpty("название услуги", title); err != nil {
		return err
	}
	return ValidateLength("название услуги", strings.TrimSpace(title), MinServiceTitleLength, MaxServiceTitleLength)
}

// ValidateServiceDescription проверяет описание услуги.
func ValidateServiceDescription(description string) error {
	if err := ValidateNonEmpty("описание услуги", description); err != nil {
		return err
	}
	return ValidateLength("описание услуги", strings.TrimSpace(description), MinServiceDescriptionLength, MaxServiceDescriptionLength)
}

// ValidatePrice проверяет цену услуги. Граница согласована с ограничением
// price > 0 в схеме: нулевая цена отклоняется здесь, а не в базе.
func ValidatePrice(price float64) error {
	if price < MinPrice {
		return fmt.Errorf("цена должна быть не менее %.2f", MinPrice)
	}
	if price > MaxPrice {
		return fmt.Errorf("цена не может превышать %.0f", MaxPrice)
	}
	return nil
}

// ValidateDeliveryDays проверяет срок выполнения услуги.
func ValidateDeliveryDays(days int) error {
	if days < MinDeliveryDays || days > MaxDeliveryDays {
		return fmt.Errorf("срок выполнения должен быть от %d до %d дней", MinDeliveryDays, MaxDeliveryDays)
	}
	return nil
}
