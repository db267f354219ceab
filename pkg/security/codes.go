package security

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
)

var trackingCharset = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

const (
	shortCodeLength   = 6
	refundCodePrefix  = "REF-"
	collectionCodeMin = 1000
	collectionCodeMax = 9999
)

// GenerateShortCode produces the human-readable tracking code printed on
// receipts: 6 uppercase alphanumerics.
func GenerateShortCode() (string, error) {
	return randomFromCharset(shortCodeLength)
}

// GenerateRefundCode produces a refund voucher code (REF- plus 6 uppercase
// alphanumerics).
func GenerateRefundCode() (string, error) {
	suffix, err := randomFromCharset(shortCodeLength)
	if err != nil {
		return "", err
	}
	return refundCodePrefix + suffix, nil
}

// GenerateCollectionCode produces the 4-digit numeric code a customer presents
// at a pickup point.
func GenerateCollectionCode() (string, error) {
	span := collectionCodeMax - collectionCodeMin + 1
	n, err := randUint32()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", collectionCodeMin+int(n)%span), nil
}

func randomFromCharset(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, err := randUint32()
		if err != nil {
			return "", err
		}
		sb.WriteRune(trackingCharset[int(n)%len(trackingCharset)])
	}
	return sb.String(), nil
}

func randUint32() (uint32, error) {
	var buff [4]byte
	if _, err := rand.Read(buff[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buff[:]), nil
}
