// Package validation содержит функции нормализации, проверки и форматирования входных данных.
package validation

import (
	"strings"
	"unicode"
)

const (
	cpfLength         = 11
	orderNumberPrefix = "JE"
	orderNumberDigits = 8
)

// NormalizeDigits удаляет из строки все символы, кроме цифр.
func NormalizeDigits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCPF приводит CPF к виду из одних цифр для сравнения и хранения ссылок.
func NormalizeCPF(cpf string) string {
	return NormalizeDigits(cpf)
}

// IsValidCPF проверяет, что CPF после нормализации содержит ровно 11 цифр.
// Контрольные цифры не проверяются.
func IsValidCPF(cpf string) bool {
	return len(NormalizeCPF(cpf)) == cpfLength
}

// FormatCPF форматирует CPF по маске 000.000.000-00.
// Лишние цифры отбрасываются, неполный CPF возвращается одними цифрами.
func FormatCPF(cpf string) string {
	d := NormalizeCPF(cpf)
	if len(d) > cpfLength {
		d = d[:cpfLength]
	}
	if len(d) != cpfLength {
		return d
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// FormatPhone форматирует телефон по маске (00) 00000-0000 или (00) 0000-0000.
func FormatPhone(phone string) string {
	d := NormalizeDigits(phone)
	if len(d) > 11 {
		d = d[:11]
	}
	switch len(d) {
	case 11:
		return "(" + d[0:2] + ") " + d[2:7] + "-" + d[7:11]
	case 10:
		return "(" + d[0:2] + ") " + d[2:6] + "-" + d[6:10]
	default:
		return d
	}
}

// NormalizeOrderNumber обрезает пробелы и приводит номер заказа к верхнему регистру.
func NormalizeOrderNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}

// IsValidOrderNumber проверяет формат номера заказа: "JE" и 8 цифр, без учёта регистра.
func IsValidOrderNumber(number string) bool {
	n := NormalizeOrderNumber(number)
	if len(n) != len(orderNumberPrefix)+orderNumberDigits || !strings.HasPrefix(n, orderNumberPrefix) {
		return false
	}
	for _, ch := range n[len(orderNumberPrefix):] {
		if !unicode.IsDigit(ch) {
			return false
		}
	}
	return true
}
