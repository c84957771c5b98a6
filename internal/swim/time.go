package swim

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel values that appear in place of a race time
const (
	Disqualified = "DQ"
	NoShow       = "NS"
)

var (
	wholePattern   = regexp.MustCompile(`^\d+$`)
	secondsPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ErrInvalidTime is returned for strings that are neither a race time nor a sentinel
var ErrInvalidTime = errors.New("invalid race time")

// Time is a parsed race time. Seconds is nil when the swim produced no time,
// in which case Note carries the sentinel that replaced it.
type Time struct {
	Seconds *float64
	Note    string
}

// IsSentinel reports whether s is one of the no-time markers
func IsSentinel(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s == Disqualified || s == NoShow
}

// PadTime pads a time string to H:MM:SS.ss form by component count.
// "28.41" becomes "0:0:28.41", "1:05.32" becomes "0:1:05.32", and a
// three-component string is returned unchanged.
func PadTime(s string) string {
	switch strings.Count(s, ":") {
	case 0:
		return "0:0:" + s
	case 1:
		return "0:" + s
	default:
		return s
	}
}

// ParseTime converts a race-time string to seconds.
//
// Accepted forms are SS.ss, MM:SS.ss and H:MM:SS.ss, optionally prefixed with
// "-" (negative delta) or "+". DQ and NS yield a Time with nil Seconds and the
// sentinel as Note.
func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Time{}, errors.Wrap(ErrInvalidTime, "empty time")
	}
	if IsSentinel(s) {
		return Time{Note: strings.ToUpper(s)}, nil
	}

	sec, err := parseSigned(s)
	if err != nil {
		return Time{}, err
	}
	return Time{Seconds: &sec}, nil
}

func parseSigned(s string) (float64, error) {
	sign := 1.0
	switch {
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	parts := strings.Split(PadTime(strings.TrimSpace(s)), ":")
	if len(parts) != 3 {
		return 0, errors.Wrapf(ErrInvalidTime, "%q: too many components", s)
	}
	// plain decimal digits only; strconv would also take hex, exponents and underscores
	if !wholePattern.MatchString(parts[0]) || !wholePattern.MatchString(parts[1]) || !secondsPattern.MatchString(parts[2]) {
		return 0, errors.Wrapf(ErrInvalidTime, "%q: not a race time", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, errors.Wrapf(ErrInvalidTime, "%q: bad hours", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 {
		return 0, errors.Wrapf(ErrInvalidTime, "%q: bad minutes", s)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 || math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return 0, errors.Wrapf(ErrInvalidTime, "%q: bad seconds", s)
	}
	if (hours > 0 || minutes > 0) && seconds >= 60 {
		return 0, errors.Wrapf(ErrInvalidTime, "%q: seconds out of range", s)
	}
	if hours > 0 && minutes >= 60 {
		return 0, errors.Wrapf(ErrInvalidTime, "%q: minutes out of range", s)
	}

	total := float64(hours*3600+minutes*60) + seconds
	return sign * total, nil
}

// FormatSeconds converts seconds to the display form. Minutes are shown only
// when non-zero and seconds always carry two fractional digits:
// 65.32 becomes "1:05.32" and 9.5 becomes "09.50".
func FormatSeconds(sec float64) string {
	sign := ""
	if sec < 0 {
		sign = "-"
		sec = -sec
	}

	hundredths := int64(math.Round(sec * 100))
	minutes := hundredths / 6000
	rem := float64(hundredths-minutes*6000) / 100

	if minutes == 0 {
		return fmt.Sprintf("%s%05.2f", sign, rem)
	}
	return fmt.Sprintf("%s%d:%05.2f", sign, minutes, rem)
}

// FormatOptional formats a possibly-missing time; nil formats as ""
func FormatOptional(sec *float64) string {
	if sec == nil {
		return ""
	}
	return FormatSeconds(*sec)
}

var deltaNoise = strings.NewReplacer(" seconds", "", "Personal Best", "", "PB", "")

// ParseDelta parses an improvement cell such as "-1.23 seconds (PB)" or
// "+0:01.10". A cell with no number, like "" or "PB", yields nil.
func ParseDelta(s string) (*float64, error) {
	s, _, _ = strings.Cut(s, "(")
	s = strings.TrimSpace(deltaNoise.Replace(s))
	if s == "" {
		return nil, nil
	}

	sec, err := parseSigned(s)
	if err != nil {
		return nil, err
	}
	return &sec, nil
}
