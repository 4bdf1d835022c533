package oracle

import (
	"encoding/base64"
	"encoding/json"
	"net"
	"net/mail"
	"net/url"
	"time"
)

// formatValidators mirrors the teacher's Formats registry: one predicate per
// named format, applied only to string instances (a non-string instance
// always passes, since "format" constrains representation, not type).
var formatValidators = map[string]func(string) bool{
	"date-time": isDateTime,
	"date":      isDate,
	"time":      isTime,
	"email":     isEmail,
	"hostname":  isHostname,
	"ipv4":      isIPv4,
	"ipv6":      isIPv6,
	"uri":       isURI,
	"uuid":      isUUID,
}

func isDateTime(v string) bool {
	if len(v) < 20 || (v[10] != 'T' && v[10] != 't') {
		return false
	}
	return isDate(v[:10]) && isTime(v[11:])
}

func isDate(v string) bool {
	_, err := time.Parse("2006-01-02", v)
	return err == nil
}

func isTime(v string) bool {
	if len(v) < 9 {
		return false
	}
	if _, err := time.Parse("15:04:05Z07:00", v); err == nil {
		return true
	}
	_, err := time.Parse("15:04:05", v)
	return err == nil
}

func isEmail(v string) bool {
	_, err := mail.ParseAddress(v)
	return err == nil
}

func isHostname(v string) bool {
	if v == "" || len(v) > 253 {
		return false
	}
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == '.' {
			label := v[start:i]
			if label == "" || len(label) > 63 {
				return false
			}
			start = i + 1
		}
	}
	return true
}

func isIPv4(v string) bool {
	ip := net.ParseIP(v)
	return ip != nil && ip.To4() != nil
}

func isIPv6(v string) bool {
	ip := net.ParseIP(v)
	return ip != nil && ip.To4() == nil
}

func isURI(v string) bool {
	u, err := url.Parse(v)
	return err == nil && u.IsAbs()
}

func isUUID(v string) bool {
	if len(v) != 36 {
		return false
	}
	for i := 0; i < len(v); i++ {
		switch i {
		case 8, 13, 18, 23:
			if v[i] != '-' {
				return false
			}
		default:
			if !isHexDigit(v[i]) {
				return false
			}
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// contentDecoders mirrors the teacher's compiler.Decoders default registration.
var contentDecoders = map[string]func(string) ([]byte, error){
	"base64": base64.StdEncoding.DecodeString,
}

// contentMediaTypes mirrors the teacher's compiler.MediaTypes default
// registration, trimmed to the one media type the repair/generate stages
// ever need to parse: a generated/repaired string never needs to round-trip
// through an XML or YAML contentSchema.
var contentMediaTypes = map[string]func([]byte) (any, error){
	"application/json": func(data []byte) (any, error) {
		var v any
		err := json.Unmarshal(data, &v)
		return v, err
	},
}
