package sampler

import (
	"github.com/Dicklesworthstone/netspeed/internal/model"
	"github.com/Dicklesworthstone/netspeed/internal/procfs"
	"github.com/Dicklesworthstone/netspeed/internal/selector"
)

// TemperatureSampler reads the selected thermal source. Sources are
// discovered lazily and again whenever the chosen file stops reading.
type TemperatureSampler struct {
	reader     *procfs.Reader
	sources    []selector.ThermalSource
	current    selector.ThermalSource
	selected   bool
	discovered bool
	override   string
}

func NewTemperatureSampler(r *procfs.Reader) *TemperatureSampler {
	return &TemperatureSampler{reader: r}
}

func (t *TemperatureSampler) discover() {
	t.sources = selector.DiscoverThermal(t.reader)
	t.current, t.selected = selector.PickThermal(t.sources, t.override)
	t.discovered = true
}

// Read returns the current temperature; override pins a source by id or name.
func (t *TemperatureSampler) Read(override string) model.Temperature {
	if !t.discovered || override != t.override {
		t.override = override
		t.discover()
	}
	if !t.selected {
		return model.Temperature{}
	}
	milli, ok := t.reader.ReadInt(t.current.Path)
	if !ok {
		t.discover()
		if !t.selected {
			return model.Temperature{}
		}
		if milli, ok = t.reader.ReadInt(t.current.Path); !ok {
			return model.Temperature{}
		}
	}
	return model.Temperature{
		SourceID: t.current.ID,
		Name:     t.current.Name,
		Celsius:  float64(milli) / 1000,
		Valid:    true,
	}
}

// Sensors lists the discovered sources as id and display name.
func (t *TemperatureSampler) Sensors() []model.Sensor {
	sources := t.Sources()
	out := make([]model.Sensor, 0, len(sources))
	for _, src := range sources {
		out = append(out, model.Sensor{ID: src.ID, Name: src.Name})
	}
	return out
}

// Sources lists the discovered sources in discovery order.
func (t *TemperatureSampler) Sources() []selector.ThermalSource {
	if !t.discovered {
		t.discover()
	}
	return append([]selector.ThermalSource(nil), t.sources...)
}
