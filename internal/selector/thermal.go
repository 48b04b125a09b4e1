package selector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Dicklesworthstone/netspeed/internal/procfs"
)

type ThermalKind string

const (
	KindThermalZone ThermalKind = "thermal"
	KindHwmon       ThermalKind = "hwmon"
)

// ThermalSource is one readable temperature file.
type ThermalSource struct {
	ID   string
	Name string
	Chip string
	Path string
	Kind ThermalKind
}

var tempInput = regexp.MustCompile(`^temp(\d+)_input$`)

// DiscoverThermal enumerates thermal zones then hwmon inputs. Only sources
// whose value currently parses are returned.
func DiscoverThermal(r *procfs.Reader) []ThermalSource {
	var out []ThermalSource

	zones := r.Sys("class", "thermal")
	for _, zone := range r.ListDirs(zones, "thermal_zone") {
		path := r.Sys("class", "thermal", zone, "temp")
		if _, ok := r.ReadInt(path); !ok {
			continue
		}
		name, ok := r.ReadValue(r.Sys("class", "thermal", zone, "type"))
		if !ok {
			name = zone
		}
		out = append(out, ThermalSource{
			ID:   "thermal:" + zone,
			Name: name,
			Path: path,
			Kind: KindThermalZone,
		})
	}

	for _, hw := range r.ListDirs(r.Sys("class", "hwmon"), "hwmon") {
		dir := r.Sys("class", "hwmon", hw)
		chip, ok := r.ReadValue(r.Sys("class", "hwmon", hw, "name"))
		if !ok {
			chip = hw
		}
		for _, file := range r.ListFiles(dir) {
			m := tempInput.FindStringSubmatch(file)
			if m == nil {
				continue
			}
			path := r.Sys("class", "hwmon", hw, file)
			if _, ok := r.ReadInt(path); !ok {
				continue
			}
			label, ok := r.ReadValue(r.Sys("class", "hwmon", hw, "temp"+m[1]+"_label"))
			if !ok {
				label = "temp" + m[1]
			}
			out = append(out, ThermalSource{
				ID:   fmt.Sprintf("hwmon:%s:temp%s", hw, m[1]),
				Name: chip + " - " + label,
				Chip: chip,
				Path: path,
				Kind: KindHwmon,
			})
		}
	}
	return out
}

type keywordScore struct {
	keyword string
	score   int
}

var (
	chipScores = []keywordScore{{"coretemp", 100}, {"k10temp", 100}, {"zenpower", 80}}
	// Only the first matching name keyword counts.
	nameScores = []keywordScore{{"package", 60}, {"tctl", 55}, {"tdie", 55}, {"cpu", 40}, {"core", 20}}
	// Every matching penalty applies.
	namePenalties = []keywordScore{{"pch", -10}, {"nvme", -30}, {"acpitz", -20}}
)

// Score rates how likely src is to be the CPU package sensor.
func Score(src ThermalSource) int {
	name := strings.ToLower(src.Name)
	chip := strings.ToLower(src.Chip)
	v := 0
	for _, k := range chipScores {
		if strings.Contains(chip, k.keyword) {
			v += k.score
		}
	}
	for _, k := range nameScores {
		if strings.Contains(name, k.keyword) {
			v += k.score
			break
		}
	}
	for _, k := range namePenalties {
		if strings.Contains(name, k.keyword) {
			v += k.score
		}
	}
	if src.Kind == KindHwmon {
		v += 10
	}
	return v
}

// PickThermal honours an override matching a source id or name, then
// falls back to the highest score. Ties keep the earlier source.
func PickThermal(sources []ThermalSource, override string) (ThermalSource, bool) {
	if len(sources) == 0 {
		return ThermalSource{}, false
	}
	if override != "" {
		for _, s := range sources {
			if s.ID == override || s.Name == override {
				return s, true
			}
		}
	}
	best := sources[0]
	bestScore := Score(best)
	for _, s := range sources[1:] {
		if sc := Score(s); sc > bestScore {
			best, bestScore = s, sc
		}
	}
	return best, true
}
