package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rvadriving/scheduler/core/model"
	"github.com/rvadriving/scheduler/infra/store"
)

// SeedFile is the on-disk shape of a store seed: reference data plus initial
// records. Record ids are kept as written so seeds stay referenceable.
type SeedFile struct {
	Ref          model.RefData              `json:"ref"`
	Bookings     []model.Booking            `json:"bookings"`
	Availability []model.AvailabilityRecord `json:"availability"`
}

// LoadSeed reads a JSON seed file into the store.
func LoadSeed(st *store.MemoryStore, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	st.SetRefData(seed.Ref)
	for _, b := range seed.Bookings {
		if _, err := st.CreateBooking(b); err != nil {
			return err
		}
	}
	for _, rec := range seed.Availability {
		if _, err := st.CreateAvailability(rec); err != nil {
			return err
		}
	}
	return nil
}
