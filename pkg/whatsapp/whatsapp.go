package whatsapp

import (
	"net/url"
	"strings"
)

const baseURL = "https://wa.me/"

// NormalizePhone converts a local phone number into the international digits wa.me expects.
// Numbers starting with 0 are assumed to be Indonesian (+62).
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = "62" + digits[1:]
	}
	return digits
}

// ChatURL builds a click-to-chat link with a prefilled message
func ChatURL(phone, message string) string {
	digits := NormalizePhone(phone)
	if digits == "" {
		return ""
	}
	if message == "" {
		return baseURL + digits
	}
	return baseURL + digits + "?text=" + url.QueryEscape(message)
}
