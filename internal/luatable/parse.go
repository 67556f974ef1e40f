package luatable

import (
	"errors"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// Mode selects the strategy Parse uses to recover records.
type Mode int

const (
	// ModeGeneric normalizes the literal and decodes it as a whole.
	// Any grammar error fails the file.
	ModeGeneric Mode = iota
	// ModeTolerant scans raw text for "[id] = { ... }" entries and skips
	// entries it cannot delimit.
	ModeTolerant
)

func (m Mode) String() string {
	switch m {
	case ModeGeneric:
		return "generic"
	case ModeTolerant:
		return "tolerant"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses the text form of a Mode. The empty string means generic.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "generic":
		return ModeGeneric, nil
	case "tolerant":
		return ModeTolerant, nil
	}
	return 0, fmt.Errorf("unknown parse mode %q (want generic or tolerant)", s)
}

type options struct {
	repair bool
	onSkip func(*PartialEntryError)
}

// Option configures Parse.
type Option func(*options)

// WithRepair makes generic mode run the normalized text through a JSON
// repairer and decode once more when the first attempt fails.
func WithRepair(on bool) Option {
	return func(o *options) { o.repair = on }
}

// WithSkipHandler registers fn to receive every entry the tolerant scanner
// drops.
func WithSkipHandler(fn func(*PartialEntryError)) Option {
	return func(o *options) { o.onSkip = fn }
}

// Parse recovers the records of the table literal in src. Generic mode
// returns the entries whose values are tables in their stored order;
// tolerant mode returns the entries in source order.
func Parse(src string, mode Mode, opts ...Option) ([]Record, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch mode {
	case ModeGeneric:
		return parseGeneric(src, o)
	case ModeTolerant:
		records, skipped := ExtractEntries(src)
		if o.onSkip != nil {
			for _, e := range skipped {
				o.onSkip(e)
			}
		}
		return records, nil
	default:
		return nil, fmt.Errorf("parse: unsupported mode %v", mode)
	}
}

func parseGeneric(src string, o options) ([]Record, error) {
	norm, err := NormalizeSource(src)
	if err != nil {
		return nil, err
	}
	entries, err := DecodeRecords(norm)
	if err != nil && o.repair {
		var decErr *DecodeError
		if errors.As(err, &decErr) {
			entries, err = repairAndDecode(norm, decErr)
		}
	}
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, entries.Len())
	entries.Each(func(_ string, v Value) bool {
		records = append(records, v.Mapping())
		return true
	})
	return records, nil
}

// repairAndDecode retries a failed decode on repaired text. The original
// decode error is returned when the repair itself fails or does not help.
func repairAndDecode(norm string, orig *DecodeError) (*Mapping, error) {
	fixed, err := jsonrepair.JSONRepair(norm)
	if err != nil {
		return nil, orig
	}
	entries, err := DecodeRecords(fixed)
	if err != nil {
		return nil, orig
	}
	return entries, nil
}
