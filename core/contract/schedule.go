package contract

import (
	"encoding/json"
	"io"

	"usage-pricing/core/types"
	"usage-pricing/internal/errors"
)

// ParseSchedule decodes a JSON pricing schedule. Numbers are kept as
// json.Number so amounts are not routed through float64.
func ParseSchedule(r io.Reader) (types.PricingSchedule, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var schedule types.PricingSchedule
	if err := dec.Decode(&schedule); err != nil {
		if err == io.EOF {
			return types.PricingSchedule{}, nil
		}
		return nil, errors.Parsing("invalid pricing schedule", err)
	}
	if schedule == nil {
		schedule = types.PricingSchedule{}
	}
	return schedule, nil
}
