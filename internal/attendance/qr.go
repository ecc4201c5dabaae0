package attendance

import (
	"encoding/json"
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

// QRPayload is the scannable self-registration payload. The wire
// format is a plain JSON object; Timestamp is issue time in epoch
// milliseconds.
type QRPayload struct {
	ClaseID   int64 `json:"clase_id"`
	Timestamp int64 `json:"timestamp"`
}

// DecodeQR parses the qrData string presented by a student's device.
func DecodeQR(data string) (QRPayload, error) {
	var p QRPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return QRPayload{}, err
	}
	if p.ClaseID == 0 {
		return QRPayload{}, errors.New("qr payload missing clase_id")
	}
	return p, nil
}

// EncodeQR serializes a payload to its wire form.
func EncodeQR(p QRPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// QRImage renders the payload as a PNG for classroom display.
func QRImage(p QRPayload) ([]byte, error) {
	raw, err := EncodeQR(p)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(raw, qrcode.Medium, 256)
}
