package cards

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// BIN (Bank Identification Number) every issued card starts with
const BIN = "220220"

const maskPrefix = "**** **** **** "

// Generate produces a new card number: BIN, nine random digits and a Luhn
// check digit, already masked to the display form. The full number never
// leaves this function.
func Generate() (string, error) {
	var number strings.Builder
	number.WriteString(BIN)

	for range 9 {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("error while generating card number. Err: %w", err)
		}
		number.WriteByte(byte('0' + d.Int64()))
	}

	partial := number.String()
	return Mask(fmt.Sprintf("%s%d", partial, checkDigit(partial))), nil
}

// checkDigit computes the Luhn check digit for a partial card number
func checkDigit(number string) int {
	sum := 0
	double := false

	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit = digit%10 + 1
			}
		}
		sum += digit
		double = !double
	}

	return (10 - sum%10) % 10
}

// Mask hides a full 16 digit number leaving only the last four digits
func Mask(number string) string {
	if len(number) != 16 {
		return ""
	}
	return maskPrefix + number[len(number)-4:]
}

// Display builds the stored display form from a user supplied last-4 suffix.
// Card lookups are keyed by this form.
func Display(last4 string) string {
	return maskPrefix + last4
}
