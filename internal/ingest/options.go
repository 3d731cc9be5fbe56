package ingest

import (
	"fmt"
	"net/url"
)

// Speed is the speaking pace the backend grades against.
type Speed string

const (
	SpeedStandard Speed = "standard"
	SpeedSlow     Speed = "slow"
	SpeedFast     Speed = "fast"
)

// Gender selects the pitch baseline.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Options are the analysis knobs sent with a transcription request. Zero
// values are left for the backend to default.
type Options struct {
	Style  string
	Speed  Speed
	Gender Gender
}

// Validate rejects unknown speed and gender values.
func (o Options) Validate() error {
	switch o.Speed {
	case "", SpeedStandard, SpeedSlow, SpeedFast:
	default:
		return fmt.Errorf("invalid speed %q", o.Speed)
	}
	switch o.Gender {
	case "", GenderMale, GenderFemale:
	default:
		return fmt.Errorf("invalid gender %q", o.Gender)
	}
	return nil
}

// Query encodes the options as URL query parameters, omitting empty ones.
func (o Options) Query() url.Values {
	q := url.Values{}
	if o.Style != "" {
		q.Set("style", o.Style)
	}
	if o.Speed != "" {
		q.Set("speed", string(o.Speed))
	}
	if o.Gender != "" {
		q.Set("gender", string(o.Gender))
	}
	return q
}

func (o Options) String() string { return o.Query().Encode() }
